package retrieval

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

const svgContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'; img-src data:; script-src 'none';"

// svgUnsafeValues are substrings that make an attribute value executable once URL whitespace is removed
var svgUnsafeValues = []string{"javascript:", "vbscript:", "data:text/html"}

// svgCamelAttrs restores the case the tokenizer folds away for attributes SVG renderers match case-sensitively
var svgCamelAttrs = map[string]string{
	"attributename":       "attributeName",
	"basefrequency":       "baseFrequency",
	"clippathunits":       "clipPathUnits",
	"filterunits":         "filterUnits",
	"gradienttransform":   "gradientTransform",
	"gradientunits":       "gradientUnits",
	"lengthadjust":        "lengthAdjust",
	"markerheight":        "markerHeight",
	"markerunits":         "markerUnits",
	"markerwidth":         "markerWidth",
	"maskcontentunits":    "maskContentUnits",
	"maskunits":           "maskUnits",
	"numoctaves":          "numOctaves",
	"pathlength":          "pathLength",
	"patterncontentunits": "patternContentUnits",
	"patterntransform":    "patternTransform",
	"patternunits":        "patternUnits",
	"preserveaspectratio": "preserveAspectRatio",
	"primitiveunits":      "primitiveUnits",
	"refx":                "refX",
	"refy":                "refY",
	"spreadmethod":        "spreadMethod",
	"startoffset":         "startOffset",
	"stddeviation":        "stdDeviation",
	"textlength":          "textLength",
	"viewbox":             "viewBox",
}

// SanitizeSVG strips script elements, doctype declarations, event handler attributes, and attributes
// carrying javascript:, vbscript: or data:text/html payloads. Tags left untouched keep their original bytes.
func SanitizeSVG(svg []byte) []byte {
	z := html.NewTokenizer(bytes.NewReader(svg))
	var out bytes.Buffer
	out.Grow(len(svg))

	// SVG is XML, so no element content is raw text: markup inside title or style is still tokenized
	inScript := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF, or an unparseable tail which is dropped
			return out.Bytes()
		}

		// TagName and TagAttr lower-case the buffer in place
		raw := append([]byte(nil), z.Raw()...)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			z.NextIsNotRawText()
			name, hasAttr := z.TagName()
			if string(name) == "script" {
				if tt == html.StartTagToken {
					inScript = true
				}
				continue
			}
			if inScript {
				continue
			}
			out.Write(sanitizeTag(raw, len(name), hasAttr, tt == html.SelfClosingTagToken, z))
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "script" {
				inScript = false
				continue
			}
			if !inScript {
				out.Write(raw)
			}
		case html.DoctypeToken:
			// Internal DTD subsets can declare entities that expand to markup
		default:
			if !inScript {
				out.Write(raw)
			}
		}
	}
}

type svgAttr struct {
	key string
	val string
}

// sanitizeTag returns raw unchanged when no attribute is unsafe, otherwise the tag rebuilt without them
func sanitizeTag(raw []byte, nameLen int, hasAttr, selfClosing bool, z *html.Tokenizer) []byte {
	if !hasAttr {
		return raw
	}

	var (
		kept    []svgAttr
		dropped bool
	)
	for more := true; more; {
		var k, v []byte
		k, v, more = z.TagAttr()
		key, val := string(k), string(v)
		if unsafeSVGAttr(key, val) {
			dropped = true
			continue
		}
		kept = append(kept, svgAttr{key: key, val: val})
	}
	if !dropped {
		return raw
	}

	var b strings.Builder
	// raw begins with '<' followed by the tag name in its original case
	b.WriteString(string(raw[:1+nameLen]))
	for _, a := range kept {
		key := a.key
		if camel, ok := svgCamelAttrs[key]; ok {
			key = camel
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.val))
		b.WriteByte('"')
	}
	if selfClosing {
		b.WriteByte('/')
	}
	b.WriteByte('>')
	return []byte(b.String())
}

func unsafeSVGAttr(key, val string) bool {
	if strings.HasPrefix(key, "on") {
		return true
	}
	norm := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, strings.ToLower(val))
	for _, s := range svgUnsafeValues {
		if strings.Contains(norm, s) {
			return true
		}
	}
	return false
}
