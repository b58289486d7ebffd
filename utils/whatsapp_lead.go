package utils

import (
	"fmt"
	"strings"

	"leadform/models"
)

// Provider-side pacing between the items of one conversation, preserving
// message order on the recipient's device.
const (
	FirstItemDelayMs = 4000
	NextItemDelayMs  = 6000
)

// WhatsappSequence is one ordered multi-item send to a single recipient.
type WhatsappSequence struct {
	Client   *EvolutionClient
	Number   string
	Items    []models.MessageItem
	Data     map[string]interface{}
	FormName string
	Media    MediaOptions
	Retry    RetryPolicy
}

// Send delivers the items strictly in configured order with per-item retry.
// The first failing item aborts the rest; items already delivered are not
// rolled back, so partial delivery is possible and accepted.
func (seq *WhatsappSequence) Send() error {
	for i, item := range seq.Items {
		delayMs := FirstItemDelayMs
		if i > 0 {
			delayMs = NextItemDelayMs
		}

		err := seq.Retry.SendWithRetry(func() error {
			return seq.sendItem(item, delayMs)
		})
		if err != nil {
			return fmt.Errorf("item %d (%s): %w", i+1, item.Type, err)
		}
	}
	return nil
}

func (seq *WhatsappSequence) sendItem(item models.MessageItem, delayMs int) error {
	switch strings.ToLower(item.Type) {
	case "", "text":
		text := ComposeMessage(item.Content, seq.Data, seq.FormName)
		return seq.Client.SendText(seq.Number, text, delayMs)

	case "audio":
		media, err := ResolveMedia(item.Content, item.MimeType, seq.Media)
		if err != nil {
			return err
		}
		return seq.Client.SendAudio(seq.Number, media.Media, delayMs)

	case "image", "video", "document":
		media, err := ResolveMedia(item.Content, item.MimeType, seq.Media)
		if err != nil {
			return err
		}
		if item.FileName != "" {
			media.FileName = item.FileName
		}
		caption := ComposeMessage(item.Caption, seq.Data, seq.FormName)
		return seq.Client.SendMedia(seq.Number, strings.ToLower(item.Type), media, caption, delayMs)

	default:
		return fmt.Errorf("unsupported message type %q", item.Type)
	}
}
