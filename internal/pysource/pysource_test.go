package pysource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `import math


def area(radius: float) -> float:
    return math.pi * radius ** 2


def _hidden():
    pass


async def fetch(url,
                timeout=10):
    return None


class Shape(Base):
    def __init__(self, name):
        self.name = name

    @property
    def label(self) -> str:
        return self.name

    def _private(self):
        return 1


@decorator
def wrapped(x):
    return x
`

func TestExtractSignatures(t *testing.T) {
	sigs, err := ExtractSignatures(context.Background(), []byte(sample))
	require.NoError(t, err)

	var names []string
	for _, s := range sigs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"area", "fetch", "Shape", "Shape.__init__", "Shape.label", "wrapped"}, names)

	assert.Equal(t, "def area(radius: float) -> float", sigs[0].Text)
	assert.Equal(t, 4, sigs[0].Line)
	assert.Equal(t, KindFunction, sigs[0].Kind)
	assert.Equal(t, "async def fetch(url, timeout=10)", sigs[1].Text)
	assert.Equal(t, "class Shape(Base)", sigs[2].Text)
	assert.Equal(t, KindClass, sigs[2].Kind)
	assert.Equal(t, KindMethod, sigs[4].Kind)
	assert.Equal(t, "def label(self) -> str", sigs[4].Text)
}

func TestExtractSignatures_NoPublicSymbols(t *testing.T) {
	sigs, err := ExtractSignatures(context.Background(), []byte("X = 1\n\ndef _only():\n    pass\n"))
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestCheckSyntax(t *testing.T) {
	require.NoError(t, CheckSyntax(context.Background(), []byte("def ok():\n    return 1\n")))

	err := CheckSyntax(context.Background(), []byte("def broken(:\n    return\n"))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)

	require.ErrorAs(t, CheckSyntax(context.Background(), []byte("   \n")), &se)
}

func TestFormatSignatures(t *testing.T) {
	out := FormatSignatures([]Signature{
		{Kind: KindClass, Text: "class A"},
		{Kind: KindMethod, Text: "def run(self)"},
		{Kind: KindFunction, Text: "def main()"},
	})
	assert.Equal(t, "class A\n    def run(self)\ndef main()", out)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "pkg.util", ModuleName("src/pkg/util.py"))
	assert.Equal(t, "pkg", ModuleName("pkg/__init__.py"))
	assert.Equal(t, "calc", ModuleName("./calc.py"))
	assert.Equal(t, "test_pkg_util_generated.py", TestFileName("pkg.util"))
}
