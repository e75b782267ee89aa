// Package vision implements ocr.Engine with Google Cloud Vision document
// text detection.
package vision

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/dgallion1/examscope/internal/ocr"
	"google.golang.org/api/option"
)

type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// Engine sends page images to the Vision API.
type Engine struct {
	client        annotator
	languageHints []string
}

// New creates a Vision client. credentials may be a path to a service
// account file or the JSON itself; empty means application default
// credentials.
func New(ctx context.Context, credentials string, languageHints []string) (*Engine, error) {
	var opts []option.ClientOption
	switch c := strings.TrimSpace(credentials); {
	case c == "":
	case strings.HasPrefix(c, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(c)))
	default:
		if _, err := os.Stat(c); err != nil {
			return nil, &ocr.UnavailableError{Component: "vision", Reason: "credentials file not readable", Err: err}
		}
		opts = append(opts, option.WithCredentialsFile(c))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, &ocr.UnavailableError{Component: "vision", Reason: "client init failed", Err: err}
	}
	return &Engine{client: client, languageHints: languageHints}, nil
}

func (e *Engine) Name() string { return "vision" }

func (e *Engine) Recognize(ctx context.Context, png []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: png},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
	if len(e.languageHints) > 0 {
		req.Requests[0].ImageContext = &visionpb.ImageContext{LanguageHints: e.languageHints}
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}
	r := resp.GetResponses()[0]
	if st := r.GetError(); st != nil && st.GetCode() != 0 {
		return "", fmt.Errorf("vision: %s", st.GetMessage())
	}
	return strings.TrimSpace(r.GetFullTextAnnotation().GetText()), nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}
