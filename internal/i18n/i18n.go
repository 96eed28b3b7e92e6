// Package i18n provides localized user-facing messages.
package i18n

import (
	"fmt"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	EN Language = "en"
	ZH Language = "zh"
)

var (
	mu      sync.RWMutex
	current = EN
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	EN: {
		// Speech recognition errors
		"speech_no_speech":     "no speech detected, please try again",
		"speech_audio_capture": "microphone capture failed, check your audio device",
		"speech_not_allowed":   "microphone permission denied",
		"speech_network":       "network failure during recognition",
		"speech_service":       "speech service unavailable",
		"speech_bad_grammar":   "recognition grammar error",
		"speech_language":      "recognition language not supported",
		"speech_aborted":       "recognition aborted",
		"speech_init_failed":   "failed to initialize speech recognition",
		"speech_start_failed":  "failed to start speech recognition",
		"speech_unsupported":   "speech recognition is not available in this environment",

		// Status lines
		"speech_listening":   "Listening...",
		"speech_recognizing": "Recognizing...",
	},
	ZH: {
		"speech_no_speech":     "未检测到语音，请重试",
		"speech_audio_capture": "麦克风采集失败，请检查音频设备",
		"speech_not_allowed":   "麦克风权限被拒绝",
		"speech_network":       "识别过程中网络出错",
		"speech_service":       "语音服务不可用",
		"speech_bad_grammar":   "识别语法错误",
		"speech_language":      "不支持该识别语言",
		"speech_aborted":       "识别已中止",
		"speech_init_failed":   "语音识别初始化失败",
		"speech_start_failed":  "语音识别启动失败",
		"speech_unsupported":   "当前环境不支持语音识别",

		"speech_listening":   "正在聆听...",
		"speech_recognizing": "正在识别...",
	},
}

// SetLanguage switches the active language.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := translations[lang]; ok {
		current = lang
	}
}

// CurrentLanguage returns the active language.
func CurrentLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// T returns the translation for key in the active language.
// Unknown keys fall back to English, then to the key itself.
func T(key string) string {
	mu.RLock()
	lang := current
	mu.RUnlock()

	if msg, ok := translations[lang][key]; ok {
		return msg
	}
	if msg, ok := translations[EN][key]; ok {
		return msg
	}
	return key
}

// Tf returns a formatted translation.
func Tf(key string, args ...interface{}) string {
	return fmt.Sprintf(T(key), args...)
}
