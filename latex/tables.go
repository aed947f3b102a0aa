package latex

// Lookup tables used by the word stages. Keys are matched against whole
// identifiers (maximal runs of letters, digits and '_'), so "theta1" never
// matches "theta". Identifiers that are already escaped with a backslash are
// never looked up. Matching is case-sensitive.

var greekSymbols = map[string]string{
	"alpha":   `\alpha`,
	"beta":    `\beta`,
	"gamma":   `\gamma`,
	"delta":   `\delta`,
	"epsilon": `\epsilon`,
	"zeta":    `\zeta`,
	"eta":     `\eta`,
	"theta":   `\theta`,
	"iota":    `\iota`,
	"kappa":   `\kappa`,
	"lambda":  `\lambda`,
	"mu":      `\mu`,
	"nu":      `\nu`,
	"xi":      `\xi`,
	"pi":      `\pi`,
	"rho":     `\rho`,
	"sigma":   `\sigma`,
	"tau":     `\tau`,
	"upsilon": `\upsilon`,
	"phi":     `\phi`,
	"chi":     `\chi`,
	"psi":     `\psi`,
	"omega":   `\omega`,
	"Gamma":   `\Gamma`,
	"Delta":   `\Delta`,
	"Theta":   `\Theta`,
	"Lambda":  `\Lambda`,
	"Xi":      `\Xi`,
	"Pi":      `\Pi`,
	"Sigma":   `\Sigma`,
	"Upsilon": `\Upsilon`,
	"Phi":     `\Phi`,
	"Psi":     `\Psi`,
	"Omega":   `\Omega`,
}

// mathFunctions get a command backslash; their argument parentheses stay.
// exp(...) calls are turned into e^{...} before this table is consulted, so only
// a bare exp reaches it.
var mathFunctions = map[string]string{
	"exp":    `\exp`,
	"sin":    `\sin`,
	"cos":    `\cos`,
	"tan":    `\tan`,
	"sec":    `\sec`,
	"csc":    `\csc`,
	"cot":    `\cot`,
	"arcsin": `\arcsin`,
	"arccos": `\arccos`,
	"arctan": `\arctan`,
	"sinh":   `\sinh`,
	"cosh":   `\cosh`,
	"tanh":   `\tanh`,
	"sqrt":   `\sqrt`,
	"log":    `\log`,
	"ln":     `\ln`,
	"lim":    `\lim`,
	"max":    `\max`,
	"min":    `\min`,
}

// constants follow the solver's spelling: E is Euler's number, I the imaginary
// unit, oo infinity. Lowercase e and i are ordinary identifiers and stay as they are.
var constants = map[string]string{
	"E":  "e",
	"I":  "i",
	"oo": `\infty`,
}

// differentials split a d glued to a Greek integration variable.
var differentials = map[string]string{
	"dtheta": `d\theta`,
	"dphi":   `d\phi`,
	"drho":   `d\rho`,
}

// IsFunctionName reports whether name is typeset as a math operator.
func IsFunctionName(name string) bool {
	_, ok := mathFunctions[name]
	return ok
}

// IsConstantName reports whether name denotes a fixed number rather than a variable.
func IsConstantName(name string) bool {
	switch name {
	case "pi", "E", "oo":
		return true
	}
	return false
}
