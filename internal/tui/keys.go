package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Candle  key.Binding
	Blow    key.Binding
	Relight key.Binding
	Mic     key.Binding
	Flower  key.Binding
	Reset   key.Binding
	More    key.Binding
	Fewer   key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Candle:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"), key.WithHelp("1-0", "candle")),
		Blow:    key.NewBinding(key.WithKeys("b", " "), key.WithHelp("b", "blow")),
		Relight: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "relight")),
		Mic:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mic")),
		Flower:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flower")),
		Reset:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "reset bouquet")),
		More:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "candles")),
		Fewer:   key.NewBinding(key.WithKeys("-", "_")),
		Dismiss: key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "continue")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Candle, k.Blow, k.Relight, k.Mic, k.Flower, k.More, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Candle, k.Blow, k.Relight, k.Mic},
		{k.Flower, k.Reset, k.More, k.Dismiss, k.Quit},
	}
}

// candleForKey maps digit keys to zero-based candle indices; "0" is the tenth.
func candleForKey(s string) (int, bool) {
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	if s[0] == '0' {
		return 9, true
	}
	return int(s[0] - '1'), true
}
