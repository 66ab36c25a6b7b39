package update

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sandeepkv93/habitgarden/internal/model"
	"github.com/sandeepkv93/habitgarden/internal/storage"
)

func (m *Model) loadTheme() {
	if m.settings == nil {
		return
	}
	s, err := m.settings.GetSetting(m.ctx, storage.SettingTheme)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("load theme failed", zap.Error(err))
		}
		return
	}
	m.Theme = model.ParseTheme(s.Value)
}

func (m *Model) setTheme(theme model.Theme) {
	m.Theme = theme
	m.syncDetails()
	if m.settings == nil {
		m.Status = StatusBar{Text: fmt.Sprintf("theme: %s", theme)}
		return
	}
	if err := m.settings.SetSetting(m.ctx, storage.Setting{Key: storage.SettingTheme, Value: string(theme)}); err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: fmt.Sprintf("theme %s not saved: %v", theme, err), IsError: true}
		return
	}
	m.Status = StatusBar{Text: fmt.Sprintf("theme: %s", theme)}
}
