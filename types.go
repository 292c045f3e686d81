package hybridrag

// Strategy names the component that answered a query.
type Strategy string

// Strategies.
const (
	StrategyRule      Strategy = "rule"
	StrategyEmbedding Strategy = "embedding"
)

// Document is a corpus entry.
type Document struct {
	Content string
	Source  string
}

// Match is a ranked document. Index is the position in the searched corpus,
// -1 for literal rule answers.
type Match struct {
	Content string
	Source  string
	Score   float64
	Index   int
}

// Argument is one extracted function argument. Value is int64 or string.
type Argument struct {
	Name  string
	Value any
}

// FunctionCall is a structured call extracted from a query.
type FunctionCall struct {
	Name      string
	Arguments []Argument
	// ArgumentsJSON encodes Arguments as a JSON object in template order.
	ArgumentsJSON string
}

// Answer is the result of Search or Retrieve: either Matches or Call is set.
type Answer struct {
	Strategy Strategy
	Rule     string
	Matches  []Match
	Call     *FunctionCall
}
