package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestMemory(t *testing.T) {
	testRepository(t, repository.NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	logoURL := "https://example.com/logo.png"
	gt.NoError(t, repo.PutProfile(ctx, &model.UserProfile{
		UID:      "u1",
		Branding: &model.BrandingRecord{LogoURL: &logoURL, Opacity: 80},
	}))

	got, err := repo.GetProfile(ctx, "u1")
	gt.NoError(t, err)
	*got.Branding.LogoURL = "changed"
	got.Branding.Opacity = 10

	again, err := repo.GetProfile(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, *again.Branding.LogoURL, logoURL)
	gt.Equal(t, again.Branding.Opacity, 80)
}
