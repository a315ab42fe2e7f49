package reply

import (
	"context"
	"strings"
)

// keywordResponses maps message substrings to canned replies, checked in
// order so more specific buckets win over greetings.
var keywordResponses = []struct {
	keyword  string
	response string
}{
	{"hello", "Hello! How can I help you today?"},
	{"hi ", "Hi there! Tell me what the problem is."},
	{"thank", "You're welcome! Is there anything else I can help with?"},
	{"app", "If the application is misbehaving, try:\n1. Restarting the app\n2. Updating to the latest version\n3. Reinstalling it"},
	{"internet", "Connection problems can usually be fixed by:\n1. Restarting your router\n2. Checking your network settings\n3. Contacting your provider"},
	{"network", "Connection problems can usually be fixed by:\n1. Restarting your router\n2. Checking your network settings\n3. Contacting your provider"},
	{"audio", "For audio issues:\n1. Check your sound settings\n2. Make sure your headset is connected\n3. Try another device"},
	{"sound", "For audio issues:\n1. Check your sound settings\n2. Make sure your headset is connected\n3. Try another device"},
	{"login", "If you cannot log in:\n1. Double-check your username and password\n2. Try account recovery\n3. Contact support"},
	{"problem", "I understand you're having a problem. Could you describe it in more detail?"},
	{"help", "Happy to help! What do you need assistance with?"},
}

const keywordFallback = "I see you have a question. Could you explain your issue in more detail?\n" +
	"If you need a human right away, use the claim button to call the support team."

// KeywordResponder matches the message against a fixed substring table.
// It never fails and always has an answer, which makes it the fallback
// behind the generative responder.
type KeywordResponder struct {
	maxLength int
}

// NewKeywordResponder constructs the responder.
func NewKeywordResponder(maxLength int) *KeywordResponder {
	return &KeywordResponder{maxLength: maxLength}
}

func (r *KeywordResponder) Respond(_ context.Context, req Request) (string, error) {
	lower := strings.ToLower(req.Message)
	for _, candidate := range keywordResponses {
		if strings.Contains(lower, candidate.keyword) {
			return Truncate(candidate.response, r.maxLength), nil
		}
	}
	return Truncate(keywordFallback, r.maxLength), nil
}
