package filtergraph

import (
	"errors"
	"testing"
)

func concatGraph() *Graph {
	g := New("outv", "outa")
	g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("fps", "30"), F("setsar", "1")}, Outputs: []Pad{Link("v_0")}})
	g.Add(Chain{Inputs: []Pad{Stream(0, "a")}, Filters: []Filter{F("anull")}, Outputs: []Pad{Link("a_0")}})
	g.Add(Chain{
		Inputs:  []Pad{Link("v_0"), Link("a_0")},
		Filters: []Filter{F("concat", KV("n", 1), KV("v", 1), KV("a", 1))},
		Outputs: []Pad{Link("outv"), Link("outa")},
	})
	return g
}

func TestGraphString(t *testing.T) {
	got, err := concatGraph().String()
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	want := "[0:v]fps=30,setsar=1[v_0]; [0:a]anull[a_0]; [v_0][a_0]concat=n=1:v=1:a=1[outv][outa]"
	if got != want {
		t.Fatalf("graph = %q\nwant   %q", got, want)
	}
}

func TestGraphValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Graph
	}{
		{"empty", func() *Graph { return New() }},
		{"duplicate label", func() *Graph {
			g := New("x")
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("x")}})
			g.Add(Chain{Inputs: []Pad{Stream(1, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("x")}})
			return g
		}},
		{"consumed before produced", func() *Graph {
			g := New("out")
			g.Add(Chain{Inputs: []Pad{Link("v_0")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("out")}})
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("v_0")}})
			return g
		}},
		{"consumed twice", func() *Graph {
			g := New("o1", "o2")
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("v_0")}})
			g.Add(Chain{Inputs: []Pad{Link("v_0")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("o1")}})
			g.Add(Chain{Inputs: []Pad{Link("v_0")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("o2")}})
			return g
		}},
		{"dangling label", func() *Graph {
			g := New("out")
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("v_0")}})
			g.Add(Chain{Inputs: []Pad{Stream(0, "a")}, Filters: []Filter{F("anull")}, Outputs: []Pad{Link("out")}})
			return g
		}},
		{"missing sink", func() *Graph {
			g := New("outv")
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("other")}})
			return g
		}},
		{"bad label", func() *Graph {
			g := New("bad label")
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("bad label")}})
			return g
		}},
		{"bad stream kind", func() *Graph {
			g := New("out")
			g.Add(Chain{Inputs: []Pad{Stream(0, "s")}, Filters: []Filter{F("null")}, Outputs: []Pad{Link("out")}})
			return g
		}},
		{"no filters", func() *Graph {
			g := New("out")
			g.Add(Chain{Inputs: []Pad{Stream(0, "v")}, Outputs: []Pad{Link("out")}})
			return g
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().String()
			if !errors.Is(err, ErrInvalidGraph) {
				t.Fatalf("expected ErrInvalidGraph, got %v", err)
			}
		})
	}
}

func TestSourceChainWithoutInputs(t *testing.T) {
	g := New("a_0")
	g.Add(Chain{Filters: []Filter{F("aevalsrc", "0", KV("d", "2.5"), KV("s", 48000), KV("c", "stereo"))}, Outputs: []Pad{Link("a_0")}})
	got, err := g.String()
	if err != nil {
		t.Fatalf("String returned error: %v", err)
	}
	if got != "aevalsrc=0:d=2.5:s=48000:c=stereo[a_0]" {
		t.Fatalf("graph = %q", got)
	}
}

func TestEscaping(t *testing.T) {
	if got := EscapePath(`C:\Windows\Fonts\font.ttf`); got != `C\:/Windows/Fonts/font.ttf` {
		t.Fatalf("EscapePath = %q", got)
	}
	raw := "Sat,03.09.2024\n08:30:15"
	escaped := EscapeText(raw)
	if escaped != "Sat,03.09.2024\n08\\:30\\:15" {
		t.Fatalf("EscapeText = %q", escaped)
	}
	if UnescapeText(escaped) != raw {
		t.Fatalf("UnescapeText round trip = %q", UnescapeText(escaped))
	}
	if got := EscapeText(`100% it's`); got != `100\% it\'s` {
		t.Fatalf("EscapeText specials = %q", got)
	}
}
