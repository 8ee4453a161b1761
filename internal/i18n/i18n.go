// Package i18n 提供国际化支持
// 负责管理应用程序的语言包和翻译功能
package i18n

import (
	"sync"

	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"

	"github.com/weiwangfds/fieldtax/internal/logger"
)

// 支持的语言
const (
	LangZhCN = "zh-CN"
	LangEnUS = "en-US"
)

var (
	instance *I18n
	once     sync.Once

	// 语言包存储
	translations = map[string]map[string]string{
		LangZhCN: {
			"success":               "成功",
			"internal_server_error": "服务器内部错误",
			"invalid_params":        "参数错误",
			"unauthorized":          "未授权",
			"not_found":             "资源未找到",
			"service_unavailable":   "服务不可用",

			"database_connection":  "数据库连接错误",
			"database_query":       "数据库查询错误",
			"database_insert":      "数据库插入错误",
			"database_update":      "数据库更新错误",
			"database_delete":      "数据库删除错误",
			"database_transaction": "数据库事务错误",
			"record_not_found":     "记录未找到",

			"auth_login_failed":  "登录认证失败",
			"auth_token_expired": "会话凭证已过期",

			"transfer_connection_failed": "数据传输连接失败",
			"transfer_timeout":           "数据传输超时",
			"transfer_rejected":          "后端拒绝了本次数据分块",
			"transfer_payload_invalid":   "数据分块序列化失败",

			"export_in_progress":        "同步会话正在进行中",
			"export_aborted":            "同步会话已中止",
			"attachment_cleanup_failed": "附件文件清理失败",
			"reference_fetch_failed":    "参照数据获取失败",
			"reference_sync_failed":     "参照数据同步失败",

			"unknown_error": "未知错误",
		},
		LangEnUS: {
			"success":               "Success",
			"internal_server_error": "Internal Server Error",
			"invalid_params":        "Invalid Parameters",
			"unauthorized":          "Unauthorized",
			"not_found":             "Resource Not Found",
			"service_unavailable":   "Service Unavailable",

			"database_connection":  "Database Connection Error",
			"database_query":       "Database Query Error",
			"database_insert":      "Database Insert Error",
			"database_update":      "Database Update Error",
			"database_delete":      "Database Delete Error",
			"database_transaction": "Database Transaction Error",
			"record_not_found":     "Record Not Found",

			"auth_login_failed":  "Login Authentication Failed",
			"auth_token_expired": "Session Credential Expired",

			"transfer_connection_failed": "Transfer Connection Failed",
			"transfer_timeout":           "Transfer Timed Out",
			"transfer_rejected":          "Backend Rejected The Chunk",
			"transfer_payload_invalid":   "Chunk Serialization Failed",

			"export_in_progress":        "Sync Session Already In Progress",
			"export_aborted":            "Sync Session Aborted",
			"attachment_cleanup_failed": "Attachment Cleanup Failed",
			"reference_fetch_failed":    "Reference Data Fetch Failed",
			"reference_sync_failed":     "Reference Data Sync Failed",

			"unknown_error": "Unknown Error",
		},
	}
)

// I18n 国际化管理器
type I18n struct {
	translators map[string]ut.Translator
	defaultLang string
}

// GetInstance 获取I18n单例
func GetInstance() *I18n {
	once.Do(func() {
		instance = &I18n{
			translators: make(map[string]ut.Translator),
			defaultLang: LangZhCN,
		}
		instance.initTranslators()
	})
	return instance
}

// initTranslators 初始化翻译器
func (i *I18n) initTranslators() {
	zhCN := zh.New()
	enUS := en_US.New()
	uni := ut.New(zhCN, enUS, zhCN)

	// 注册支持的语言 - 使用locale库的标识符
	langMappings := map[string]string{
		LangZhCN: "zh",
		LangEnUS: "en_US",
	}

	for ourLang, localeLang := range langMappings {
		trans, found := uni.GetTranslator(localeLang)
		if !found {
			logger.Errorf("初始化翻译器失败 for language %s (locale: %s): translator not found", ourLang, localeLang)
			continue
		}
		i.translators[ourLang] = trans
	}

	logger.Info("国际化翻译器初始化完成")
}

// Translate 根据键和语言获取翻译
func (i *I18n) Translate(key, lang string) string {
	if translation, found := translations[lang][key]; found {
		return translation
	}

	// 如果当前语言没有找到，尝试在默认语言中查找
	if lang != i.defaultLang {
		if translation, found := translations[i.defaultLang][key]; found {
			return translation
		}
	}

	logger.Warnf("未找到翻译: %s, 语言: %s", key, lang)
	return key
}

// SetDefaultLanguage 设置默认语言
func (i *I18n) SetDefaultLanguage(lang string) {
	i.defaultLang = lang
}

// GetDefaultLanguage 获取默认语言
func (i *I18n) GetDefaultLanguage() string {
	return i.defaultLang
}

// IsSupportedLanguage 检查语言是否支持
func (i *I18n) IsSupportedLanguage(lang string) bool {
	_, exists := i.translators[lang]
	return exists
}

// GetSupportedLanguages 获取支持的语言列表
func (i *I18n) GetSupportedLanguages() []string {
	langs := make([]string, 0, len(i.translators))
	for lang := range i.translators {
		langs = append(langs, lang)
	}
	return langs
}
