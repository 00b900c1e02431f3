// Package tray provides the system tray menu for mudra: toggles for camera
// tracking, finger tracking, the thumb base and phone input.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/config"
)

// Settings reads and updates the tunables the tray toggles.
type Settings interface {
	Settings() config.Retarget
	UpdateSettings(fn func(*config.Retarget)) (config.Retarget, error)
}

type toggle struct {
	title   string
	tooltip string
	get     func(config.Retarget) bool
	set     func(*config.Retarget, bool)
	item    *systray.MenuItem
}

func toggles() []*toggle {
	return []*toggle{
		{
			title: "Camera Tracking", tooltip: "Track hands with the camera",
			get: func(r config.Retarget) bool { return r.HandTracking },
			set: func(r *config.Retarget, v bool) { r.HandTracking = v },
		},
		{
			title: "Finger Tracking", tooltip: "Drive finger bones from landmarks",
			get: func(r config.Retarget) bool { return r.FingerTracking },
			set: func(r *config.Retarget, v bool) { r.FingerTracking = v },
		},
		{
			title: "Disable Thumb Base", tooltip: "Keep the thumb base at rest",
			get: func(r config.Retarget) bool { return r.DisableThumbBase },
			set: func(r *config.Retarget, v bool) { r.DisableThumbBase = v },
		},
		{
			title: "Phone Input", tooltip: "Accept poses from a paired phone",
			get: func(r config.Retarget) bool { return r.PhoneInput },
			set: func(r *config.Retarget, v bool) { r.PhoneInput = v },
		},
	}
}

// Tray represents the system tray application.
type Tray struct {
	settings Settings
	code     string
	toggles  []*toggle

	mu         sync.RWMutex
	onSettings func()
	onQuit     func()
	onError    func(error)
}

// New creates a Tray driving settings. code is the phone pairing code shown
// in the menu.
func New(settings Settings, code string) *Tray {
	return &Tray{settings: settings, code: code, toggles: toggles()}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnError sets the callback for a toggle that could not be applied, such
// as the camera failing to start.
func (t *Tray) OnError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Hand Tracking")

	cur := t.settings.Settings()
	for _, tg := range t.toggles {
		tg.item = systray.AddMenuItemCheckbox(tg.title, tg.tooltip, tg.get(cur))
	}
	systray.AddSeparator()

	code := systray.AddMenuItem("Phone code: "+t.code, "Enter this code on the phone")
	code.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	for i, tg := range t.toggles {
		i, tg := i, tg
		go func() {
			for range tg.item.ClickedCh {
				t.handleToggle(i)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle flips toggle i and reflects the stored value, which differs
// from the requested one when the update was refused.
func (t *Tray) handleToggle(i int) bool {
	tg := t.toggles[i]
	want := !tg.get(t.settings.Settings())
	after, err := t.settings.UpdateSettings(func(r *config.Retarget) { tg.set(r, want) })
	if err != nil {
		after = t.settings.Settings()
		t.mu.RLock()
		callback := t.onError
		t.mu.RUnlock()
		if callback != nil {
			callback(err)
		}
	}

	got := tg.get(after)
	if tg.item != nil {
		if got {
			tg.item.Check()
		} else {
			tg.item.Uncheck()
		}
	}
	return got
}

// Quit removes the tray icon and returns Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}
