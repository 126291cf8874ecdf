// Package view renders pages and form markup. Form controls are built with
// a string builder rather than templates so error state, attributes, and
// option groups stay in one place.
package view

import (
	"fmt"
	"html"
	"html/template"
	"sort"
	"strings"

	"github.com/composehq/composeweb/internal/form"
)

// RenderForm renders the whole submission as a Bootstrap form, including the
// hidden form-id and CSRF inputs.
func RenderForm(sub *form.Submission, submitLabel string) template.HTML {
	var b strings.Builder

	fmt.Fprintf(&b, `<form method="%s" action="%s" novalidate>`,
		html.EscapeString(strings.ToLower(sub.Method())), html.EscapeString(sub.Action()))
	b.WriteString("\n")

	idField := sub.FormIDField()
	hiddenInput(&b, idField.Name, idField.Value)
	if csrf := sub.CSRFField(); csrf != nil {
		hiddenInput(&b, csrf.Name, csrf.Value)
	}

	for _, field := range sub.Fields() {
		b.WriteString(string(RenderField(field)))
	}

	if submitLabel == "" {
		submitLabel = "Submit"
	}
	fmt.Fprintf(&b, `<button type="submit" class="btn btn-primary">%s</button>`, html.EscapeString(submitLabel))
	b.WriteString("\n</form>\n")

	return template.HTML(b.String())
}

// RenderField renders one control with its label, errors, and help text.
func RenderField(f form.Field) template.HTML {
	var b strings.Builder

	wrapper := map[string]string{"class": "mb-3"}
	for k, v := range f.WrapperAttributes {
		if k == "class" {
			wrapper["class"] = wrapper["class"] + " " + v
			continue
		}
		wrapper[k] = v
	}
	b.WriteString("<div")
	writeAttributes(&b, wrapper)
	b.WriteString(">\n")

	if f.Type == "checkbox" {
		renderCheckbox(&b, f)
	} else {
		renderLabel(&b, f)
		switch f.Type {
		case "textarea":
			renderTextarea(&b, f)
		case "select":
			renderSelect(&b, f)
		default:
			renderInput(&b, f)
		}
	}

	for _, msg := range f.Errors {
		fmt.Fprintf(&b, `<div class="invalid-feedback">%s</div>`+"\n", html.EscapeString(msg))
	}
	if f.Help != "" {
		fmt.Fprintf(&b, `<div class="form-text">%s</div>`+"\n", html.EscapeString(f.Help))
	}

	b.WriteString("</div>\n")
	return template.HTML(b.String())
}

func renderLabel(b *strings.Builder, f form.Field) {
	label := f.Label
	if label == "" {
		label = f.Name
	}
	fmt.Fprintf(b, `<label class="form-label" for="%s">%s`, html.EscapeString(f.Name), html.EscapeString(label))
	if f.Required {
		b.WriteString(`<span class="text-danger">*</span>`)
	}
	b.WriteString("</label>\n")
}

func renderInput(b *strings.Builder, f form.Field) {
	attrs := baseAttributes(f, controlClass("form-control", f))
	attrs["type"] = f.Type
	attrs["value"] = stringValue(f.Value)
	b.WriteString("<input")
	writeAttributes(b, attrs)
	b.WriteString(">\n")
}

func renderTextarea(b *strings.Builder, f form.Field) {
	attrs := baseAttributes(f, controlClass("form-control", f))
	b.WriteString("<textarea")
	writeAttributes(b, attrs)
	fmt.Fprintf(b, ">%s</textarea>\n", html.EscapeString(stringValue(f.Value)))
}

func renderSelect(b *strings.Builder, f form.Field) {
	attrs := baseAttributes(f, controlClass("form-select", f))
	b.WriteString("<select")
	writeAttributes(b, attrs)
	b.WriteString(">\n")

	selected := stringValue(f.Value)
	for _, opt := range f.Options {
		if len(opt.Options) > 0 {
			fmt.Fprintf(b, `<optgroup label="%s">`+"\n", html.EscapeString(opt.Label))
			for _, sub := range opt.Options {
				renderOption(b, sub, selected)
			}
			b.WriteString("</optgroup>\n")
			continue
		}
		renderOption(b, opt, selected)
	}
	b.WriteString("</select>\n")
}

func renderOption(b *strings.Builder, opt form.Option, selected string) {
	marker := ""
	if opt.Value != "" && opt.Value == selected {
		marker = " selected"
	}
	fmt.Fprintf(b, `<option value="%s"%s>%s</option>`+"\n",
		html.EscapeString(opt.Value), marker, html.EscapeString(opt.Label))
}

func renderCheckbox(b *strings.Builder, f form.Field) {
	b.WriteString(`<div class="form-check">` + "\n")
	attrs := baseAttributes(f, controlClass("form-check-input", f))
	attrs["type"] = "checkbox"
	attrs["value"] = "1"
	if isChecked(f.Value) {
		attrs["checked"] = ""
	}
	b.WriteString("<input")
	writeAttributes(b, attrs)
	b.WriteString(">\n")

	label := f.Label
	if label == "" {
		label = f.Name
	}
	fmt.Fprintf(b, `<label class="form-check-label" for="%s">%s</label>`+"\n",
		html.EscapeString(f.Name), html.EscapeString(label))
	b.WriteString("</div>\n")
}

func hiddenInput(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, `<input type="hidden" name="%s" value="%s">`+"\n",
		html.EscapeString(name), html.EscapeString(value))
}

func baseAttributes(f form.Field, class string) map[string]string {
	attrs := map[string]string{
		"id":    f.Name,
		"name":  f.Name,
		"class": class,
	}
	if f.Required {
		attrs["required"] = ""
	}
	for k, v := range f.Attributes {
		if k == "class" {
			attrs["class"] = attrs["class"] + " " + v
			continue
		}
		attrs[k] = v
	}
	return attrs
}

func controlClass(base string, f form.Field) string {
	if f.HasErrors() {
		return base + " is-invalid"
	}
	return base
}

// writeAttributes emits attributes sorted by name so output is stable. An
// empty value renders as a boolean attribute.
func writeAttributes(b *strings.Builder, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if attrs[k] == "" && isBooleanAttr(k) {
			fmt.Fprintf(b, " %s", k)
			continue
		}
		fmt.Fprintf(b, ` %s="%s"`, k, html.EscapeString(attrs[k]))
	}
}

func isBooleanAttr(name string) bool {
	switch name {
	case "required", "checked", "disabled", "readonly", "multiple", "autofocus":
		return true
	}
	return false
}

func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isChecked(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	default:
		return true
	}
}
