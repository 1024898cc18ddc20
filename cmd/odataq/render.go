package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/paveg/odataq/internal/semantic"
)

// nodeView is the JSON shape of a bound node.
type nodeView struct {
	Kind     string     `json:"kind"`
	Text     string     `json:"text"`
	Type     string     `json:"type,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
	Children []nodeView `json:"children,omitempty"`
}

type filterOutput struct {
	RangeVariable string   `json:"range_variable"`
	Expression    nodeView `json:"expression"`
}

type orderByItem struct {
	Direction  string   `json:"direction"`
	Expression nodeView `json:"expression"`
}

type orderByOutput struct {
	Items []orderByItem `json:"items"`
}

type batchItem struct {
	Input  string        `json:"input"`
	Result *filterOutput `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type batchView struct {
	Items  []batchItem `json:"items"`
	Failed int         `json:"failed"`
}

type syntaxView struct {
	Tree  string   `json:"tree,omitempty"`
	Items []string `json:"items,omitempty"`
}

type levelsView struct {
	Max   bool   `json:"max"`
	Level int64  `json:"level"`
	Text  string `json:"text"`
}

func describe(n semantic.Node) nodeView {
	v := nodeView{Kind: n.Kind().String(), Text: n.String()}
	switch t := n.(type) {
	case semantic.SingleValueNode:
		if ref := t.TypeReference(); ref != nil {
			v.Type = ref.FullName()
		}
	case semantic.CollectionNode:
		if ref := t.CollectionType(); ref != nil {
			v.Type = ref.FullName()
		}
	}
	if carrier, ok := n.(semantic.ErrorCarrier); ok {
		for _, err := range carrier.Errors() {
			v.Errors = append(v.Errors, err.Message)
		}
	}
	for _, child := range semantic.Children(n) {
		v.Children = append(v.Children, describe(child))
	}
	return v
}

func filterView(c *semantic.FilterClause) filterOutput {
	return filterOutput{RangeVariable: c.RangeVariable().Name(), Expression: describe(c.Expression())}
}

func orderByView(c *semantic.OrderByClause) orderByOutput {
	var out orderByOutput
	for ; c != nil; c = c.ThenBy() {
		out.Items = append(out.Items, orderByItem{Direction: c.Direction().String(), Expression: describe(c.Expression())})
	}
	return out
}

func (f filterOutput) text() string {
	var sb strings.Builder
	sb.WriteString(f.Expression.Text)
	sb.WriteString("\n")
	writeErrors(&sb, f.Expression)
	return sb.String()
}

func (o orderByOutput) text() string {
	var sb strings.Builder
	for _, item := range o.Items {
		fmt.Fprintf(&sb, "%s %s\n", item.Expression.Text, item.Direction)
		writeErrors(&sb, item.Expression)
	}
	return sb.String()
}

func (b batchView) text() string {
	var sb strings.Builder
	for i, item := range b.Items {
		fmt.Fprintf(&sb, "%d: ", i+1)
		if item.Error != "" {
			fmt.Fprintf(&sb, "error: %s\n", item.Error)
			continue
		}
		sb.WriteString(item.Result.text())
	}
	return sb.String()
}

func (s syntaxView) text() string {
	if s.Tree != "" {
		return s.Tree + "\n"
	}
	return strings.Join(s.Items, "\n") + "\n"
}

func (l levelsView) text() string {
	return l.Text + "\n"
}

func writeErrors(sb *strings.Builder, v nodeView) {
	for _, msg := range v.Errors {
		fmt.Fprintf(sb, "warning: %s\n", msg)
	}
	for _, child := range v.Children {
		writeErrors(sb, child)
	}
}

type texter interface {
	text() string
}

func render(w io.Writer, format string, v texter) error {
	if format == outputJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := io.WriteString(w, v.text())
	return err
}
