package vision

import (
	"context"
	"strings"
)

const scorePrompt = "Rate how readable the text in this image is at its current orientation. " +
	"Answer with exactly one integer between 0 and 10 and nothing else."

// scoreMaxTokens leaves just enough room for a short number.
const scoreMaxTokens = 8

// Score asks the model for a 0-10 readability rating of the image at its
// current orientation. A reply that does not start with an integer yields 0;
// scoring is advisory and never invents a failure for the caller beyond the
// transport itself.
func (c *Client) Score(ctx context.Context, data []byte, mimeType string) (int, error) {
	reply, err := c.complete(ctx, scorePrompt, data, mimeType, scoreMaxTokens)
	if err != nil {
		return 0, err
	}
	return parseScore(reply), nil
}

// parseScore reads a leading base-10 integer from the trimmed reply and
// clamps it to [0, 10]. Anything non-numeric is 0.
func parseScore(reply string) int {
	s := strings.TrimSpace(reply)
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		n = n*10 + int(r-'0')
		if n > 10 {
			return 10
		}
	}
	if !seen {
		return 0
	}
	return n
}
