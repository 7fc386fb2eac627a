package resolve

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

// Layer keys. Keys are matched case-insensitively.
const (
	keyEndpoint             = "endpoint"
	keyMediaType            = "mediatype"
	keyMethod               = "method"
	keyTitle                = "title"
	keyExpectedResponseCode = "expectedresponsecode"
	keyExclude              = "exclude"
	keyIgnore               = "ignore"
	keyPreProcessors        = "preprocessors"
	keyPostProcessors       = "postprocessors"
	keyPreProcessorScripts  = "preprocessorscripts"
	keyPostProcessorScripts = "postprocessorscripts"
	keyTags                 = "tags"

	headerPrefix   = "header_"
	databasePrefix = "db_"
	jdbcSuffix     = "_jdbc"
	userSuffix     = "_username"
	passwordSuffix = "_password"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}|\$([A-Za-z0-9_]+)`)

// Substitute replaces $name and ${name} placeholders with values from vars.
// Unknown placeholders are kept as written.
func Substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

type partialDatabase struct {
	jdbc, username, password *string
}

// ParseLayer parses the content of the layer file found in dir. path is the
// file the content was read from and is used in errors.
func ParseLayer(logger *zap.Logger, dir, path string, data []byte, vars map[string]string) (*models.ConfigLayer, error) {
	props, err := properties.Load([]byte(Substitute(string(data), vars)), properties.UTF8)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Msg: "failed to parse layer", Err: err}
	}
	// placeholders left unresolved must not be expanded against the environment
	props.DisableExpansion = true

	layer := &models.ConfigLayer{Dir: dir}
	databases := map[string]*partialDatabase{}
	var dbOrder []string

	for _, key := range props.Keys() {
		raw, _ := props.Get(key)
		value := strings.TrimSpace(raw)
		lower := strings.ToLower(key)

		switch lower {
		case keyEndpoint:
			endpoint, err := url.Parse(value)
			if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
				return nil, &models.ConfigError{Path: path, Msg: fmt.Sprintf("invalid endpoint %q", value), Err: err}
			}
			layer.Endpoint = endpoint
		case keyMediaType:
			mt := models.MediaType(value)
			layer.MediaType = &mt
		case keyMethod:
			method := strings.ToUpper(value)
			layer.Method = &method
		case keyTitle:
			title := value
			layer.Title = &title
		case keyExpectedResponseCode:
			code, err := strconv.Atoi(value)
			if err != nil {
				return nil, &models.ConfigError{Path: path, Msg: "invalid expectedResponseCode", Err: err}
			}
			layer.ExpectedResponseCode = &code
		case keyExclude:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, &models.ConfigError{Path: path, Msg: "invalid exclude flag", Err: err}
			}
			layer.Exclude = &b
		case keyIgnore:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, &models.ConfigError{Path: path, Msg: "invalid ignore flag", Err: err}
			}
			layer.Ignore = &b
		case keyPreProcessors:
			layer.PreProcessors = splitList(value)
		case keyPostProcessors:
			layer.PostProcessors = splitList(value)
		case keyPreProcessorScripts:
			layer.PreProcessorScripts = scriptPaths(dir, splitList(value))
		case keyPostProcessorScripts:
			layer.PostProcessorScripts = scriptPaths(dir, splitList(value))
		case keyTags:
			layer.Tags = splitList(value)
		default:
			switch {
			case strings.HasPrefix(lower, headerPrefix) && len(key) > len(headerPrefix):
				if layer.Headers == nil {
					layer.Headers = map[string]string{}
				}
				layer.Headers[key[len(headerPrefix):]] = value
			case strings.HasPrefix(lower, databasePrefix):
				name, field, ok := databaseKey(key)
				if !ok {
					logger.Warn("ignoring unknown database key", zap.String("key", key), zap.String("path", path))
					continue
				}
				db, seen := databases[name]
				if !seen {
					db = &partialDatabase{}
					databases[name] = db
					dbOrder = append(dbOrder, name)
				}
				v := value
				switch field {
				case jdbcSuffix:
					db.jdbc = &v
				case userSuffix:
					db.username = &v
				case passwordSuffix:
					db.password = &v
				}
			default:
				logger.Debug("ignoring unknown layer key", zap.String("key", key), zap.String("path", path))
			}
		}
	}

	for _, name := range dbOrder {
		db := databases[name]
		if db.jdbc == nil || db.username == nil || db.password == nil {
			return nil, &models.ConfigError{
				Path: path,
				Msg:  fmt.Sprintf("database %s requires jdbc, username and password", name),
			}
		}
		if layer.DatabaseConfigurations == nil {
			layer.DatabaseConfigurations = map[string]models.DatabaseConfig{}
		}
		layer.DatabaseConfigurations[name] = models.DatabaseConfig{
			JdbcAddress: *db.jdbc,
			Username:    *db.username,
			Password:    *db.password,
		}
	}
	return layer, nil
}

// databaseKey splits db_<name>_<field> keys. The name keeps its original case.
func databaseKey(key string) (name, field string, ok bool) {
	lower := strings.ToLower(key)
	for _, suffix := range []string{jdbcSuffix, userSuffix, passwordSuffix} {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(databasePrefix)+len(suffix) {
			return key[len(databasePrefix) : len(key)-len(suffix)], suffix, true
		}
	}
	return "", "", false
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func scriptPaths(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		out = append(out, p)
	}
	return out
}
