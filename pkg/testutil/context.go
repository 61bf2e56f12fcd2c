package testutil

import (
	"net/http"

	id "sparkfish/pkg/domain"
	"sparkfish/pkg/requestcontext"
)

// WithLearner adds a learner ID to the request context, as the session
// middleware does for signed-in requests. Invalid IDs are ignored.
func WithLearner(req *http.Request, learnerID string) *http.Request {
	parsed, err := id.ParseLearnerID(learnerID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithLearnerID(req.Context(), parsed))
}

// WithLearnerID is WithLearner for an already typed ID.
func WithLearnerID(req *http.Request, learnerID id.LearnerID) *http.Request {
	return req.WithContext(requestcontext.WithLearnerID(req.Context(), learnerID))
}
