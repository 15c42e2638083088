package history

import "github.com/m-mizutani/alchemy/pkg/model"

// Selection is the "current generation" shown to the user
type Selection struct {
	Idea     string
	Content  model.ContentPackage
	ImageURL string
}

// Restore projects item into a Selection without touching any ledger
func Restore(item model.HistoryItem) Selection {
	return Selection{
		Idea:     item.Idea,
		Content:  item.Content,
		ImageURL: item.Image(),
	}
}
