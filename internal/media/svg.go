package media

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"dbd/internal/models"
)

// Elements that can execute or load active content inside an SVG.
var svgBlockedElements = map[string]struct{}{
	"script":        {},
	"foreignobject": {},
	"iframe":        {},
	"embed":         {},
	"object":        {},
	"animation":     {},
	"handler":       {},
}

// SanitizeSvg strips executable elements, event-handler attributes and
// dangerous protocol schemes from vector markup, then verifies the
// result is well-formed open/close markup. The stripped document is
// re-serialized, so anything the parser could not account for is gone.
func SanitizeSvg(data []byte) ([]byte, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true

	var out bytes.Buffer
	encoder := xml.NewEncoder(&out)

	depth := 0
	skipUntil := -1 // depth of the outermost blocked element being skipped
	sawElement := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, models.ValidationError("svg is not well-formed markup")
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			sawElement = true
			if skipUntil >= 0 {
				continue
			}
			if _, blocked := svgBlockedElements[strings.ToLower(t.Name.Local)]; blocked {
				skipUntil = depth
				continue
			}
			t.Attr = sanitizeAttrs(t.Attr)
			if err := encoder.EncodeToken(t); err != nil {
				return nil, models.ValidationError("svg is not well-formed markup")
			}
		case xml.EndElement:
			if skipUntil >= 0 {
				if depth == skipUntil {
					skipUntil = -1
				}
				depth--
				continue
			}
			depth--
			if err := encoder.EncodeToken(t); err != nil {
				return nil, models.ValidationError("svg is not well-formed markup")
			}
		case xml.CharData:
			if skipUntil >= 0 {
				continue
			}
			if err := encoder.EncodeToken(t); err != nil {
				return nil, models.ValidationError("svg is not well-formed markup")
			}
		default:
			// Comments, directives and processing instructions are dropped.
		}
	}

	if depth != 0 || !sawElement {
		return nil, models.ValidationError("svg is not well-formed markup")
	}
	if err := encoder.Flush(); err != nil {
		return nil, models.ValidationError("svg is not well-formed markup")
	}
	if out.Len() == 0 {
		return nil, models.ValidationError("svg is empty after sanitizing")
	}
	return out.Bytes(), nil
}

func sanitizeAttrs(attrs []xml.Attr) []xml.Attr {
	clean := attrs[:0]
	for _, attr := range attrs {
		name := strings.ToLower(attr.Name.Local)
		if strings.HasPrefix(name, "on") {
			continue
		}
		if isRefAttr(name) && hasBlockedScheme(attr.Value) {
			continue
		}
		clean = append(clean, attr)
	}
	return clean
}

func isRefAttr(name string) bool {
	switch name {
	case "href", "src", "xlink:href", "data":
		return true
	}
	return false
}

func hasBlockedScheme(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "\n", "")
	v = strings.ReplaceAll(v, "\t", "")
	return strings.HasPrefix(v, "javascript:") ||
		strings.HasPrefix(v, "vbscript:") ||
		strings.HasPrefix(v, "data:text/html")
}
