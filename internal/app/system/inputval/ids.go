package inputval

import (
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses an id supplied in a body or query string. A malformed
// value is a validation error naming label.
func ObjectID(label, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(label + " must be a valid id.")
	}
	return id, nil
}

// ObjectIDs parses a list of ids with ObjectID.
func ObjectIDs(label string, ss []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ss))
	for _, s := range ss {
		id, err := ObjectID(label, s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// PathID parses the chi URL parameter key. A malformed id cannot name an
// existing resource, so it is reported as not found.
func PathID(r *http.Request, key, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(notFound)
	}
	return id, nil
}
