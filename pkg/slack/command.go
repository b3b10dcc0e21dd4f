package slack

import "net/url"

// Command はスラッシュコマンドのフォームパラメータ。
type Command struct {
	// TeamID はワークスペースのID。
	TeamID string
	// TeamDomain はワークスペースのドメイン。
	TeamDomain string
	// ChannelID はコマンドが実行されたチャンネルのID。
	ChannelID string
	// ChannelName はコマンドが実行されたチャンネルの名前。
	ChannelName string
	// UserID は実行したユーザーのID。
	UserID string
	// UserName は実行したユーザーの名前。
	UserName string
	// Command は "/ping" のようなコマンド名。
	Command string
	// Text はコマンドに続くテキスト。
	Text string
	// ResponseURL は遅延応答の送信先URL。
	ResponseURL string
	// TriggerID はモーダルを開く際に使用するID。
	TriggerID string
}

// ParseCommand はapplication/x-www-form-urlencoded形式のボディを解析する。
// 解析できないフィールドは読み飛ばす。値はパーセントデコード済み。
func ParseCommand(body []byte) Command {
	values, _ := url.ParseQuery(string(body))
	return Command{
		TeamID:      values.Get("team_id"),
		TeamDomain:  values.Get("team_domain"),
		ChannelID:   values.Get("channel_id"),
		ChannelName: values.Get("channel_name"),
		UserID:      values.Get("user_id"),
		UserName:    values.Get("user_name"),
		Command:     values.Get("command"),
		Text:        values.Get("text"),
		ResponseURL: values.Get("response_url"),
		TriggerID:   values.Get("trigger_id"),
	}
}
