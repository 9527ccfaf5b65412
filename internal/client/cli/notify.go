package cli

import "werss-client/internal/client/notify"

// NotifyHandler 把提示输出到终端
type NotifyHandler struct {
	Output *Output
}

func (h *NotifyHandler) OnNotification(n notify.Notification) {
	switch n.Level {
	case notify.LevelSuccess:
		h.Output.Success("%s", n.Message)
	case notify.LevelWarning:
		h.Output.Warning("%s", n.Message)
	case notify.LevelError:
		h.Output.Error("%s", n.Message)
	default:
		h.Output.Info("%s", n.Message)
	}
}
