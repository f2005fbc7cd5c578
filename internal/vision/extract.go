package vision

import "context"

const extractPrompt = "Read this business card and respond with strict JSON only, no prose " +
	"and no code fences. The object must have exactly these fields: " +
	`"name" (string), "company" (string), "position" (string), ` +
	`"phones" (array of strings), "emails" (array of strings), ` +
	`"website" (string), "address" (string), "rawText" (string with the full ` +
	"recognized text preserving line breaks). Use an empty string or empty " +
	"array for anything not present on the card."

// Describe sends the structured-extraction prompt with the image and returns
// the model's raw text reply. Recovering JSON from that reply is the
// extract package's job, because models routinely wrap it in fences or prose.
func (c *Client) Describe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return c.complete(ctx, extractPrompt, data, mimeType, 0)
}
