package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/compositor"
	"github.com/m-mizutani/alchemy/pkg/usecase/history"
	"github.com/m-mizutani/alchemy/pkg/utils/dataurl"
	"github.com/m-mizutani/goerr/v2"
)

var contentLabels = map[string]string{
	"blogTitle":     "Blog title",
	"blogContent":   "Blog",
	"imagePrompt":   "Image prompt",
	"facebookPost":  "Facebook",
	"instagramPost": "Instagram",
	"twitterPost":   "X",
	"linkedinPost":  "LinkedIn",
	"telegramPost":  "Telegram",
	"discordPost":   "Discord",
	"redditPost":    "Reddit",
}

// imageLabel shortens inline images, which are too long to print
func imageLabel(url string) string {
	if url == "" {
		return "(none)"
	}
	if dataurl.IsDataURL(url) {
		data, mimeType, err := dataurl.Decode(url)
		if err != nil {
			return "(invalid inline image)"
		}
		return fmt.Sprintf("(inline %s, %d bytes)", mimeType, len(data))
	}
	return url
}

func printSelection(w io.Writer, sel history.Selection) {
	fmt.Fprintf(w, "Idea: %s\n", sel.Idea)
	fmt.Fprintf(w, "Image: %s\n", imageLabel(sel.ImageURL))
	for _, f := range sel.Content.Fields() {
		fmt.Fprintf(w, "\n## %s\n%s\n", contentLabels[f[0]], f[1])
	}
}

func printHistoryLine(w io.Writer, item model.HistoryItem) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		item.ID,
		item.CreatedAt().Format("2006-01-02 15:04:05"),
		item.Idea,
		item.Content.BlogTitle,
	)
}

func printBranding(w io.Writer, cfg model.BrandingConfig) {
	logo := cfg.Logo()
	switch logo.Kind {
	case model.LogoSourceLocal:
		fmt.Fprintf(w, "Logo:     %s (not uploaded)\n", logo.File.Name)
	case model.LogoSourceRemote:
		fmt.Fprintf(w, "Logo:     %s\n", logo.URL)
	default:
		fmt.Fprintln(w, "Logo:     (none)")
	}
	fmt.Fprintf(w, "Caption:  %s\n", cfg.Caption)
	fmt.Fprintf(w, "Position: %s\n", cfg.Position)
	fmt.Fprintf(w, "Opacity:  %d%%\n", cfg.Opacity)
}

// saveComposite renders layout and writes it to path. The format follows the file extension.
func saveComposite(ctx context.Context, layout *compositor.Layout, path string) error {
	loader := compositor.NewLoader(&http.Client{Timeout: 30 * time.Second})
	img, err := compositor.Render(ctx, layout, loader)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(92)); err != nil {
		return goerr.Wrap(err, "failed to save composite", goerr.V("path", path))
	}
	return nil
}
