// Package cli 命令行输出与交互工具
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	colorSuccess = color.New(color.FgGreen)
	colorError   = color.New(color.FgRed)
	colorWarning = color.New(color.FgYellow)
	colorInfo    = color.New(color.FgCyan)
	colorBold    = color.New(color.Bold)
	colorFaint   = color.New(color.Faint)
)

// IsTerminal 文件是否连接到终端
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Output 提供结构化的输出接口
type Output struct {
	w       io.Writer
	noColor bool
}

// NewOutput 创建输出工具，非终端输出时自动关闭颜色
func NewOutput(w io.Writer, noColor bool) *Output {
	if f, ok := w.(*os.File); !ok || !IsTerminal(f) {
		noColor = true
	}
	return &Output{w: w, noColor: noColor}
}

// Writer 底层输出
func (o *Output) Writer() io.Writer {
	return o.w
}

func (o *Output) paint(c *color.Color, s string) string {
	if o.noColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (o *Output) line(marker string, c *color.Color, format string, args ...interface{}) {
	fmt.Fprintf(o.w, "%s %s\n", o.paint(c, marker), fmt.Sprintf(format, args...))
}

// Success 输出成功消息
func (o *Output) Success(format string, args ...interface{}) {
	o.line("✅", colorSuccess, format, args...)
}

// Error 输出错误消息
func (o *Output) Error(format string, args ...interface{}) {
	o.line("❌", colorError, format, args...)
}

// Warning 输出警告消息
func (o *Output) Warning(format string, args ...interface{}) {
	o.line("⚠️", colorWarning, format, args...)
}

// Info 输出信息消息
func (o *Output) Info(format string, args ...interface{}) {
	o.line("ℹ️", colorInfo, format, args...)
}

// Plain 输出普通消息（无颜色）
func (o *Output) Plain(format string, args ...interface{}) {
	fmt.Fprintf(o.w, format+"\n", args...)
}

// Header 输出标题
func (o *Output) Header(title string) {
	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, o.paint(colorBold, title))
	fmt.Fprintln(o.w, strings.Repeat("━", len([]rune(title))))
}

// Section 输出分节标题
func (o *Output) Section(title string) {
	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, o.paint(colorBold, title))
	fmt.Fprintln(o.w, strings.Repeat("─", min(len([]rune(title)), 80)))
}

// KeyValue 输出键值对
func (o *Output) KeyValue(key, value string) {
	fmt.Fprintf(o.w, "  %-20s %s\n", key+":", value)
}

// Separator 输出分隔线
func (o *Output) Separator() {
	fmt.Fprintln(o.w, o.paint(colorFaint, strings.Repeat("━", 80)))
}

// JSON 缩进输出
func (o *Output) JSON(v interface{}) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table 输出表格
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建新表格
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow 添加行
func (t *Table) AddRow(cols ...string) {
	for i, col := range cols {
		if i < len(t.widths) && len([]rune(col)) > t.widths[i] {
			t.widths[i] = len([]rune(col))
		}
	}
	t.rows = append(t.rows, cols)
}

// Render 渲染表格
func (o *Output) Render(t *Table) {
	for i, header := range t.headers {
		fmt.Fprintf(o.w, "%s  ", pad(header, t.widths[i]))
	}
	fmt.Fprintln(o.w)

	total := 0
	for _, w := range t.widths {
		total += w + 2
	}
	fmt.Fprintln(o.w, strings.Repeat("─", min(total, 120)))

	for _, row := range t.rows {
		for i, col := range row {
			if i < len(t.widths) {
				fmt.Fprintf(o.w, "%s  ", pad(col, t.widths[i]))
			}
		}
		fmt.Fprintln(o.w)
	}
}

// pad 按字符数右补空格
func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
