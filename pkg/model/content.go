package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// ContentPackage is the themed text generated from one idea
type ContentPackage struct {
	BlogTitle     string `json:"blogTitle" firestore:"blogTitle" jsonschema:"Blog post title, enigmatic but clear"`
	BlogContent   string `json:"blogContent" firestore:"blogContent" jsonschema:"Blog post of 800-1000 words formatted in Markdown"`
	ImagePrompt   string `json:"imagePrompt" firestore:"imagePrompt" jsonschema:"Descriptive artistic prompt for an image representing the concept"`
	FacebookPost  string `json:"facebookPost" firestore:"facebookPost" jsonschema:"Engaging community-focused Facebook post"`
	InstagramPost string `json:"instagramPost" firestore:"instagramPost" jsonschema:"Visual poetic Instagram post with hashtags"`
	TwitterPost   string `json:"twitterPost" firestore:"twitterPost" jsonschema:"Concise X post, max 280 characters"`
	LinkedinPost  string `json:"linkedinPost" firestore:"linkedinPost" jsonschema:"Professional visionary LinkedIn post"`
	TelegramPost  string `json:"telegramPost" firestore:"telegramPost" jsonschema:"Direct broadcast-style Telegram post"`
	DiscordPost   string `json:"discordPost" firestore:"discordPost" jsonschema:"Conversational Discord message that sparks discussion"`
	RedditPost    string `json:"redditPost" firestore:"redditPost" jsonschema:"Reddit post with title and body"`
}

// Fields returns the package as ordered name/value pairs
func (c *ContentPackage) Fields() [][2]string {
	return [][2]string{
		{"blogTitle", c.BlogTitle},
		{"blogContent", c.BlogContent},
		{"imagePrompt", c.ImagePrompt},
		{"facebookPost", c.FacebookPost},
		{"instagramPost", c.InstagramPost},
		{"twitterPost", c.TwitterPost},
		{"linkedinPost", c.LinkedinPost},
		{"telegramPost", c.TelegramPost},
		{"discordPost", c.DiscordPost},
		{"redditPost", c.RedditPost},
	}
}

// Validate checks that every field is populated
func (c *ContentPackage) Validate() error {
	for _, f := range c.Fields() {
		if f[1] == "" {
			return goerr.New("content package field is empty", goerr.V("field", f[0]))
		}
	}
	return nil
}
