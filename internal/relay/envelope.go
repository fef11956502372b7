package relay

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/lanstream/internal/domain"
)

// Envelope is the client-submitted payload describing one message before
// server-side stamping. Clients never supply timestamps; the router assigns
// them at ingestion.
type Envelope struct {
	Kind         domain.Kind `json:"kind" validate:"required,oneof=text file"`
	Content      string      `json:"content" validate:"required"`
	OriginalName string      `json:"originalName" validate:"required_if=Kind file"`
	SizeBytes    int64       `json:"sizeBytes" validate:"gte=0"`
}

// newValidator builds the validator instance shared by the router. Using a
// single instance is more efficient as it caches struct information.
func newValidator() *validator.Validate {
	return validator.New()
}

// validate checks the structural rules on an envelope. The router separately
// verifies that a file envelope's content token references a stored blob.
func validateEnvelope(v *validator.Validate, env Envelope) error {
	if err := v.Struct(env); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
