package ui

import "tucan/internal/domain"

// PluginMsg wraps a plugin message for the UI loop
type PluginMsg struct {
	Message domain.ControllerMessage
}

// helpPagerMsg contains the result of a help pager command
type helpPagerMsg struct {
	err error
}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
