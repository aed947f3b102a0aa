package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"greek word", "theta", `\theta`},
		{"greek prefix of longer identifier", "theta1", "theta1"},
		{"capital greek", "Omega*t", `\Omega t`},
		{"power bare exponent", "x**2", "x^{2}"},
		{"power after parenthesis", "(x+1)**2", "(x+1)^{2}"},
		{"power parenthesised exponent", "x**(y+1)", "x^{y+1}"},
		{"power nested", "x**(y**2)", "x^{y^{2}}"},
		{"power negative exponent", "r**-1", "r^{-1}"},
		{"caret exponent", "x^2", "x^{2}"},
		{"exp call", "exp(x+1)", "e^{x+1}"},
		{"exp nested parens", "exp(-(x**2+y**2))", "e^{-(x^{2}+y^{2})}"},
		{"trig keeps parentheses", "sin(theta)", `\sin(\theta)`},
		{"sqrt keeps parentheses", "sqrt(x)", `\sqrt(x)`},
		{"constants", "E**x", "e^{x}"},
		{"infinity", "-oo", `-\infty`},
		{"imaginary unit", "I*x", "i x"},
		{"digit times letter", "2*x", "2x"},
		{"letters keep a space", "x*y*z", "x y z"},
		{"digit times command", "2*pi*r", `2\pi r`},
		{"brace then command", "r**2*sin(phi)", `r^{2}\sin(\phi)`},
		{"parenthesised factors", "(x+1)*(x-1)", "(x+1)(x-1)"},
		{"number times group", "2*(x+1)", "2(x+1)"},
		{"digit times digit", "2*3", `2 \cdot 3`},
		{"brace times digit", "x**2*3", `x^{2} \cdot 3`},
		{"parenthesis times digit", "(x+1)*2", `(x+1) \cdot 2`},
		{"letter times digit", "x*2", `x \cdot 2`},
		{"digit product chain", "2*3*4", `2 \cdot 3 \cdot 4`},
		{"power chain", "x**y**2", "x^{y^{2}}"},
		{"power chain on a number", "2**x**2", "2^{x^{2}}"},
		{"caret chain", "x^2^3", "x^{2^{3}}"},
		{"power chain after parenthesis", "x**(y+1)**2", "x^{(y+1)^{2}}"},
		{"greek word after exponent", "r**2rho", `r^{2}\rho`},
		{"differentials", `r \, dr dtheta`, `r \, dr d\theta`},
		{"whitespace", "  x   +  y ", "x + y"},
		{"dangling power", "x**", "x**"},
		{"unbalanced exp", "exp(x", `\exp(x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.in))
		})
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	inputs := []string{
		"theta", "theta1", "x**2", "(x+1)**2", "x**(y+1)", "exp(x+1)",
		"exp(exp(x))", "r**2*sin(phi)", "2*pi*r", "p*i", "e*ta", "E**x*I",
		"x*y*z", "-oo", "sqrt(1-x**2)", "cos(theta)**2", "2*(x+1)*y",
		`\int_{0}^{2*pi} r \, dr dtheta`, "x**", "exp(x", "exp*(x)",
		"rho**2*sin(phi)*cos(theta)", "  a  *  b  ", "x^2*y^3", "{a}*{b}",
		"lambda*t + mu", "1/2*x", "arctan(y/x)",
		"r**2rho", "x^2theta", "^dtheta", "x**y**2", "2**x**2", "x^2^3",
		"2*3", "x**2*3", "2**(1/3)*3/2", "x**y^{2}",
	}
	for _, in := range inputs {
		once := Rewrite(in)
		assert.Equal(t, once, Rewrite(once), "input %q", in)
	}
}

func TestFormatExactSolution(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cos(1)/2", `\frac{\cos(1)}{2}`},
		{"50/3", `\frac{50}{3}`},
		{"pi/2", `\frac{\pi}{2}`},
		{"2*pi/3", `\frac{2\pi}{3}`},
		{"sqrt(2)/2", `\frac{\sqrt{2}}{2}`},
		{"1/(2*pi)", `\frac{1}{2\pi}`},
		{"-cos(1)/2 + 1/2", `-\frac{\cos(1)}{2} + \frac{1}{2}`},
		{"exp(2)/3", `\frac{e^{2}}{3}`},
		{"E**2/2 - 1/2", `\frac{e^{2}}{2} - \frac{1}{2}`},
		{"x**(1/2)", `x^{\frac{1}{2}}`},
		{"a/b/c", `\frac{\frac{a}{b}}{c}`},
		{"4*pi", `4\pi`},
		{"2**(1/3)*3/2", `\frac{2^{\frac{1}{3}} \cdot 3}{2}`},
		{"3*2/5", `\frac{3 \cdot 2}{5}`},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatExactSolution(tt.in))
		})
	}
}

func TestFractionBeforeFunctions(t *testing.T) {
	got := FormatExactSolution("cos(1)/2")
	require.Contains(t, got, `\frac{`)
	assert.Contains(t, got, `{\cos(1)}`, "the whole call must be the numerator")
	assert.NotContains(t, got, `\cos(1)/`)
}

func TestPipelineStagesAreIndependent(t *testing.T) {
	assert.Equal(t, `\alpha+x`, GreekStage.Apply("alpha+x"))
	assert.Equal(t, "x^{2}", PowerStage.Apply("x**2"))
	assert.Equal(t, `\sin(x)`, FunctionStage.Apply("sin(x)"))
	assert.Equal(t, `\infty`, ConstantStage.Apply("oo"))
	assert.Equal(t, "2x", MultiplicationStage.Apply("2*x"))
	assert.Equal(t, `d\phi`, DifferentialStage.Apply("dphi"))
	assert.Equal(t, "a b", WhitespaceStage.Apply(" a   b "))
	assert.Equal(t, `\sqrt{x+1}`, SqrtStage.Apply("sqrt(x+1)"))
	assert.Equal(t, `\frac{1}{2}`, FractionStage.Apply("1/2"))
}

func TestRewrite_NoStrayOperators(t *testing.T) {
	for _, in := range []string{"2**(1/3)*3/2", "(x+1)*2", "x**2*3*y", "2*3"} {
		assert.NotContains(t, Rewrite(in), "*", "input %q", in)
		assert.NotContains(t, FormatExactSolution(in), "*", "input %q", in)
	}
	for _, in := range []string{"x**y**2", "2**x**2", "x^2^3", "x**y^{2}"} {
		assert.NotContains(t, Rewrite(in), "}^{", "double superscript for %q", in)
	}
}

func TestPipeline_RepeatsUntilStable(t *testing.T) {
	assert.Equal(t, `x^{2}\theta`, Rewrite("x^2theta"))
	assert.Equal(t, `^{d}\theta`, Rewrite("^dtheta"))
	assert.Equal(t, `\frac{2^{\frac{1}{3}} \cdot 3}{2}`, FormatExactSolution("2**(1/3)*3/2"))
	assert.Equal(t, `2^{1/3} \cdot 3/2`, Rewrite("2**(1/3)*3/2"))
}

func TestPipeline_CustomStages(t *testing.T) {
	p := NewPipeline(PowerStage, WhitespaceStage)
	assert.Equal(t, "theta^{2}", p.Run(" theta**2 "))
	names := []string{}
	for _, st := range DefaultPipeline().Stages() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"greek", "power", "functions", "constants", "multiplication", "differentials", "whitespace"}, names)
}
