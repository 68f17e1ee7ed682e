package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdStart     = "start"
	cmdHelp      = "help"
	cmdSetAPI    = "set_api"
	cmdRemoveAPI = "remove_api"
	cmdMyAPI     = "my_api"
)

const startText = `🤖 Welcome to the Bulk Link Shortener Bot!

How to use:
1. Set your shortener API key with /set_api <key>.
2. Send or forward me a message (or a photo with a caption) containing links.
3. I will shorten every link and send the text back with the short links.

Links to Telegram itself (t.me) are left as they are.

Commands:
/start - Start the bot
/help - Get help
/set_api <key> - Save your API key
/my_api - Show your saved API key
/remove_api - Forget your API key`

const helpText = `🆘 Help:
1. Save your API key once: /set_api <key>
2. Send or forward me a message containing links.
3. I will detect and shorten all links and return the same text with the links replaced.
Links that cannot be shortened are kept unchanged.

Example:
Input: Check out https://example.com and https://anotherexample.com
Output: Check out https://short.example/abc123 and https://short.example/xyz456`

const (
	noCredentialText   = "🔑 You have not set an API key yet. Use /set_api <key> first."
	setAPIUsageText    = "Usage: /set_api <key>"
	apiSavedText       = "✅ Your API key has been saved."
	apiRemovedText     = "🗑 Your API key has been removed."
	noAPIText          = "You have no API key saved."
	noLinksText        = "I could not find any links in your message."
	emptyMessageText   = "Send me some text or a photo with a caption containing links."
	unknownCommand     = "Unknown command. See /help."
	genericFailureText = "❌ An error occurred while processing your message. Please try again."
)

func unresolvedNotice(n int) string {
	if n == 1 {
		return "⚠️ 1 link could not be shortened and was kept as is."
	}
	return fmt.Sprintf("⚠️ %d links could not be shortened and were kept as is.", n)
}

func myAPIText(key string) string {
	return "Your API key: " + maskKey(key)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

// Commands is the command menu shown by Telegram clients.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: cmdStart, Description: "Start the bot"},
		{Command: cmdHelp, Description: "Get help"},
		{Command: cmdSetAPI, Description: "Save your shortener API key"},
		{Command: cmdMyAPI, Description: "Show your saved API key"},
		{Command: cmdRemoveAPI, Description: "Forget your API key"},
	}
}
