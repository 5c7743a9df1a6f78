package main

import (
	"strings"

	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil)

// UIDHandler issues and checks the prefixed identifiers attached to
// each request, like "r:<uuid>".
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// IDsHandler builds request ids from random v4 uuids.
type IDsHandler struct{}

func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate returns "<prefix>:<uuid>". An entropy failure yields the nil
// uuid, which IsValid rejects, so callers never reuse it as a valid id.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid reports whether id carries the prefix followed by a non nil uuid.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	raw, found := strings.CutPrefix(id, prefix+":")
	return found && uuid.FromStringOrNil(raw) != uuid.Nil
}
