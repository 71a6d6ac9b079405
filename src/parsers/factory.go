package parsers

import "fmt"

func GetParser(source string, opts Options) (Parser, error) {
	switch source {
	case "etrade":
		return NewETradeParser(), nil
	case "robinhood":
		return NewRobinhoodParser(opts.Symbol, opts.Campaign), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
