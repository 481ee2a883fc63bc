package locale

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/seatbook/seatbook/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const localizerKey = "localizer"

// Bundle holds the parsed translations and the language used when a request
// does not ask for one we have.
type Bundle struct {
	bundle      *i18n.Bundle
	defaultLang string
}

// NewBundle parses every toml file under the "translation" directory of fsys.
func NewBundle(fsys fs.FS, defaultLang string) (*Bundle, error) {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(fsys, bundle); err != nil {
		return nil, err
	}
	return &Bundle{bundle: bundle, defaultLang: defaultLang}, nil
}

func parseTranslationFiles(fsys fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(fsys, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}

// Localizer prefers the given languages in order, then the default one.
func (b *Bundle) Localizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(b.bundle, append(langs, b.defaultLang)...)
}

// Middleware picks the language from the "lang" cookie or Accept-Language and
// stores a localizer in the request.
func (b *Bundle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}
		c.Set(localizerKey, b.Localizer(lang))
		c.Next()
	}
}

// Get returns the localizer of the request, or nil before Middleware ran.
func Get(c *gin.Context) *i18n.Localizer {
	if v, ok := c.Get(localizerKey); ok {
		if l, ok := v.(*i18n.Localizer); ok {
			return l
		}
	}
	return nil
}

// I18n localizes key for the current request.
func I18n(c *gin.Context, key string, params ...string) string {
	return Localize(Get(c), key, params...)
}

// Localize renders a message. Params are "name==value" pairs. A message missing
// in the requested language comes from the bundle language; a missing localizer
// or message falls back to the key itself.
func Localize(l *i18n.Localizer, key string, params ...string) string {
	if l == nil {
		return key
	}
	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if errors.As(err, &notFound) && msg != "" {
			return msg
		}
		logger.Warningf("localize %q: %v", key, err)
		return key
	}
	return msg
}

func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any, len(params))
	for _, param := range params {
		name, value, _ := strings.Cut(param, "==")
		templateData[name] = value
	}
	return templateData
}
