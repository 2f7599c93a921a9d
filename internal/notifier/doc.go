// Package notifier delivers converted clips, snapshots and failure alerts to a
// Telegram chat through the Bot API, using github.com/go-telegram/bot as a
// send-only client.
//
// Media is uploaded with disable_notification set, so routine motion alerts
// arrive silently. Text messages are only used for failure alerts and are
// sent with notifications enabled.
//
// A call succeeds only when the API answers "ok": true. Any other outcome is
// logged and returned as an [*APIError] whose message never contains the bot
// token.
package notifier
