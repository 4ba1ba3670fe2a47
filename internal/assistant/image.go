package assistant

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Image is a generated picture
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL encodes the image as a data: URL usable as an avatar source
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// GenerateImage asks the image model to draw prompt and returns the first inline image
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if !c.Available() {
		return nil, ErrServiceUnavailable
	}

	c.logger.Debug("GenerateImage started", zap.String("model", c.imageModel))

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	res, err := c.genai.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		c.logger.Warn("GenerateImage failed", zap.Error(err))
		return nil, &RemoteError{Op: "generate image", Err: err}
	}

	for _, cand := range res.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			c.logger.Debug("GenerateImage completed",
				zap.String("mime_type", part.InlineData.MIMEType),
				zap.Int("bytes", len(part.InlineData.Data)))
			return &Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
		}
	}

	return nil, ErrEmptyResponse
}

// GenerateAvatar draws prompt and returns the image as a data URL
func (c *Client) GenerateAvatar(ctx context.Context, prompt string) (string, error) {
	img, err := c.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	return img.DataURL(), nil
}
