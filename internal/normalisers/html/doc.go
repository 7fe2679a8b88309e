// Package html normalises HTML course material. It strips tags, scripts
// and styles and decodes entities, keeping block structure as line breaks.
package html
