package compositor

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/m-mizutani/alchemy/pkg/utils/dataurl"
	"github.com/m-mizutani/goerr/v2"
)

// Loader resolves an image reference of a Layout to pixels
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

type loader struct {
	client *http.Client
}

// NewLoader returns a Loader accepting data URLs, http(s) URLs and local file paths
func NewLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &loader{client: client}
}

func (l *loader) Load(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case dataurl.IsDataURL(ref):
		data, _, err := dataurl.Decode(ref)
		if err != nil {
			return nil, err
		}
		return decode(bytes.NewReader(data), "data URL")

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create image request", goerr.V("url", ref))
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch image", goerr.V("url", ref))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, goerr.New("unexpected status fetching image",
				goerr.V("url", ref), goerr.V("status", resp.StatusCode))
		}
		return decode(resp.Body, ref)

	default:
		img, err := imaging.Open(ref, imaging.AutoOrientation(true))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open image file", goerr.V("path", ref))
		}
		return img, nil
	}
}

func decode(r io.Reader, ref string) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode image", goerr.V("ref", ref))
	}
	return img, nil
}
