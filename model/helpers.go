package model

import (
	"sort"

	"xdao.co/nameres/address"
	"xdao.co/nameres/resmap"
)

func sortedNames(p resmap.ProcessedEntries) []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func parseAddress(s string) (address.Address, error) {
	addr, err := address.Parse(s)
	if err != nil {
		return address.Zero, NewError(ErrInvalidRequest, err.Error())
	}
	return addr, nil
}
