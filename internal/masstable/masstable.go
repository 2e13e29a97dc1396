// Package masstable holds monoisotopic residue masses in daltons.
package masstable

// Residue masses, i.e. amino acid masses minus one water.
var residues = map[byte]float64{
	'G': 57.021464,
	'A': 71.037114,
	'S': 87.032028,
	'P': 97.052764,
	'V': 99.068414,
	'T': 101.047679,
	'C': 103.009185,
	'L': 113.084064,
	'I': 113.084064,
	'J': 113.084064,
	'N': 114.042927,
	'D': 115.026943,
	'Q': 128.058578,
	'K': 128.094963,
	'E': 129.042593,
	'M': 131.040485,
	'H': 137.058912,
	'F': 147.068414,
	'U': 150.953633,
	'R': 156.101111,
	'Y': 163.06332,
	'W': 186.079313,
	'O': 237.147727,
}

// Water is the monoisotopic mass of H2O.
const Water = 18.010565

// Residue returns the mass of one residue symbol.
func Residue(symbol byte) (float64, bool) {
	m, ok := residues[symbol]
	return m, ok
}

// Weight sums the residue masses of seq. ok is false if any symbol is
// unknown, in which case the partial sum is meaningless.
func Weight(seq string) (sum float64, ok bool) {
	for i := 0; i < len(seq); i++ {
		m, known := residues[seq[i]]
		if !known {
			return 0, false
		}
		sum += m
	}
	return sum, true
}

// Symbols returns the known residue symbols.
func Symbols() []byte {
	out := make([]byte, 0, len(residues))
	for s := range residues {
		out = append(out, s)
	}
	return out
}
