//go:build windows
// +build windows

package daemon

import (
	"fmt"
	"syscall"
	"unsafe"

	"fyne.io/systray"
	"go.uber.org/zap"
)

var (
	user32      = syscall.NewLazyDLL("user32.dll")
	messageBoxW = user32.NewProc("MessageBoxW")
)

const (
	MB_OK              = 0x00000000
	MB_ICONINFORMATION = 0x00000040
)

// TrayApp represents system tray application
type TrayApp struct {
	daemon *Daemon
	logger *zap.Logger
	icon   []byte
	quit   chan struct{}
	done   chan struct{}
	runErr error
}

// NewTrayApp creates a new system tray application
func NewTrayApp(daemon *Daemon, logger *zap.Logger) (*TrayApp, error) {
	icon, err := trayIcon()
	if err != nil {
		return nil, fmt.Errorf("failed to render tray icon: %w", err)
	}
	return &TrayApp{
		daemon: daemon,
		icon:   icon,
		logger: logger,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Run starts the system tray application (blocks until Quit and the daemon has shut down)
func (t *TrayApp) Run() error {
	systray.Run(t.onReady, t.onExit)
	<-t.done
	return t.runErr
}

func (t *TrayApp) onReady() {
	systray.SetIcon(t.icon)
	systray.SetTitle("Holiday API")
	systray.SetTooltip("Holiday API")

	mReload := systray.AddMenuItem("Reload data", "Drop cached holiday data and reload")
	systray.AddSeparator()
	mToday := systray.AddMenuItem("Today", "Show how today is classified")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit the application")

	// Start daemon logic in background
	go func() {
		t.runErr = t.daemon.run()
		close(t.done)
		systray.Quit()
	}()

	// Handle menu item clicks
	go func() {
		for {
			select {
			case <-mReload.ClickedCh:
				t.logger.Info("Reload data clicked from tray")
				go t.daemon.RefreshNow()
			case <-mToday.ClickedCh:
				t.logger.Info("Today clicked from tray")
				t.showToday()
			case <-mQuit.ClickedCh:
				t.logger.Info("Quit clicked from tray")
				t.daemon.Stop()
				return
			case <-t.quit:
				return
			}
		}
	}()
}

func (t *TrayApp) onExit() {
	t.logger.Info("System tray exited")
}

// Stop stops the system tray application
func (t *TrayApp) Stop() {
	close(t.quit)
}

// ShowNotification shows a notification (Windows only)
func (t *TrayApp) ShowNotification(title, message string) {
	// fyne.io/systray doesn't have built-in notification support
	t.logger.Info("Notification", zap.String("title", title), zap.String("message", message))
	systray.SetTooltip(title)
}

// showToday shows today's classification
func (t *TrayApp) showToday() {
	day := t.daemon.Today()
	t.logger.Info("Today", zap.Any("day", day))

	message := formatDay(day)
	systray.SetTooltip(message)
	showMessageBox("Holiday API", message)
}

func showMessageBox(title, message string) {
	titlePtr, _ := syscall.UTF16PtrFromString(title)
	messagePtr, _ := syscall.UTF16PtrFromString(message)
	messageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(messagePtr)),
		uintptr(unsafe.Pointer(titlePtr)),
		uintptr(MB_OK|MB_ICONINFORMATION),
	)
}
