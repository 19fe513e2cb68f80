package post

import (
	"fmt"
	"strings"
)

// StyleAttr serializes the attributes of a textStyle mark into a style
// attribute value. Unset attributes are omitted entirely: no declaration is
// ever emitted for an empty value.
func StyleAttr(attrs map[string]interface{}) string {
	var decls []string
	if size := stringAttr(attrs, "fontSize"); size != "" {
		decls = append(decls, fmt.Sprintf("font-size: %spx", size))
	}
	if family := stringAttr(attrs, "fontFamily"); family != "" {
		decls = append(decls, fmt.Sprintf("font-family: %s", family))
	}
	if color := stringAttr(attrs, "color"); color != "" {
		decls = append(decls, fmt.Sprintf("color: %s", color))
	}
	return strings.Join(decls, "; ")
}

// ParseStyleAttr is the inverse of StyleAttr: it reads a style attribute
// value back into textStyle attributes. Unknown declarations are ignored.
func ParseStyleAttr(style string) map[string]interface{} {
	attrs := map[string]interface{}{}
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch name {
		case "font-size":
			attrs["fontSize"] = strings.TrimSuffix(value, "px")
		case "font-family":
			attrs["fontFamily"] = value
		case "color":
			attrs["color"] = value
		}
	}
	return attrs
}

func stringAttr(attrs map[string]interface{}, name string) string {
	if attrs == nil {
		return ""
	}
	value, _ := attrs[name].(string)
	return value
}

// intAttr reads a numeric attribute. Attributes decoded from JSON carry
// float64 values, while attributes built in memory carry int values.
func intAttr(attrs map[string]interface{}, name string) int {
	switch value := attrs[name].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}
