package captiongen

import (
	"regexp"
	"strings"
)

// systemPrompt pins the model's behavior. The 125-character rule is
// re-enforced in NormalizeCaption; the model is not trusted to honor it.
const systemPrompt = `You are an SEO specialist generating alt text for website images.

Rules:
- Maximum 125 characters
- Describe what's visually in the image, not what you assume
- Include relevant context if provided (industry, location)
- No phrases like "image of" or "picture showing"
- No keyword stuffing
- Be specific: "red brick house" not "building"
- If people are present, describe actions not identities
- For products, include key features visible

Output ONLY the alt text, no explanation.`

// BuildUserPrompt renders the user instruction with any supplied
// context lines appended in a fixed order.
func BuildUserPrompt(hints Context) string {
	var b strings.Builder
	b.WriteString("Generate alt text for this image.")

	var parts []string
	if f := strings.TrimSpace(hints.Filename); f != "" {
		parts = append(parts, "Filename: "+f)
	}
	if i := strings.TrimSpace(hints.Industry); i != "" {
		parts = append(parts, "Industry: "+i)
	}
	if l := strings.TrimSpace(hints.Location); l != "" {
		parts = append(parts, "Location: "+l)
	}
	if len(parts) > 0 {
		b.WriteString("\n\nContext:\n")
		b.WriteString(strings.Join(parts, "\n"))
	}
	return b.String()
}

// IsRemoteURL reports whether the payload is an http(s) URL. Remote
// URLs are handed to the model verbatim; it fetches the image itself
// instead of receiving inline base64 data.
func IsRemoteURL(image string) bool {
	lower := strings.ToLower(strings.TrimSpace(image))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

const defaultMIMEType = "image/jpeg"

var dataURIPattern = regexp.MustCompile(`^data:(image/\w+);base64,`)

// ParseImagePayload splits an image payload into bare base64 data and
// its media type. A data-URI prefix supplies the type and is stripped;
// anything else is passed through with a generic still-image type.
func ParseImagePayload(image string) (data, mimeType string) {
	image = strings.TrimSpace(image)
	mimeType = defaultMIMEType
	if match := dataURIPattern.FindStringSubmatch(image); match != nil {
		mimeType = match[1]
		image = image[len(match[0]):]
	}
	return image, mimeType
}

// MaxCaptionLength is the hard cap on returned captions.
const MaxCaptionLength = 125

const ellipsis = "..."

// NormalizeCaption trims surrounding whitespace and enforces the length
// cap. Overlong output keeps the first 122 characters plus an ellipsis
// marker, so the result is always exactly at or under the cap.
func NormalizeCaption(raw string) string {
	caption := strings.TrimSpace(raw)
	runes := []rune(caption)
	if len(runes) <= MaxCaptionLength {
		return caption
	}
	return string(runes[:MaxCaptionLength-len(ellipsis)]) + ellipsis
}
