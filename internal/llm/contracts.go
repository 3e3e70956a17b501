package llm

import (
	"context"

	"github.com/phanvandien/ocr-script/constants"
	"github.com/phanvandien/ocr-script/internal/entity"
)

// ExtractRequest is one image to extract, built per worker invocation.
type ExtractRequest struct {
	Image    []byte
	Filename string
	Mode     constants.Mode
	Prompt   string
}

// NewExtractRequest fills the prompt for mode.
func NewExtractRequest(image []byte, filename string, mode constants.Mode) ExtractRequest {
	return ExtractRequest{
		Image:    image,
		Filename: filename,
		Mode:     mode,
		Prompt:   PromptFor(mode),
	}
}

// Payload is the validated result of one extraction.
type Payload struct {
	Mode    constants.Mode
	Records []entity.Record
	Dropped int    // items rejected by schema or field checks
	Raw     []byte // model text after fence stripping
}

// OracleRequest is what the vision model receives: an instruction plus one image.
type OracleRequest struct {
	Prompt       string
	ImageDataURL string
	Filename     string
}

// Oracle is the raw image-to-text model call. Implementations do not retry.
type Oracle interface {
	Complete(ctx context.Context, req OracleRequest) (string, error)
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	Extract(ctx context.Context, req ExtractRequest) (Payload, error)
}
