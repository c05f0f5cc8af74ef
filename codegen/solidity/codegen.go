// Package solidity renders the Solidity source of the tutorial token,
// so workshop attendees can see the on-chain contract the Go sandbox
// mirrors: an audited ERC20+Ownable base with a three-line constructor
// and an owner-only mint as the only first-party code.
package solidity

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ContractSpec describes the tutorial token to render. Name and Symbol
// are baked into the source; a nil InitialSupply leaves the supply as
// a constructor parameter, a set one bakes the literal in.
type ContractSpec struct {
	Name          string
	Symbol        string
	InitialSupply *uint256.Int
}

// Generate produces the contract's Solidity source. Output is
// deterministic for a given spec.
func Generate(spec ContractSpec) string {
	g := &generator{spec: spec}
	return g.generate()
}

type generator struct {
	spec ContractSpec
}

func (g *generator) generate() string {
	var b strings.Builder

	b.WriteString("// SPDX-License-Identifier: MIT\n")
	b.WriteString("pragma solidity ^0.8.20;\n\n")

	b.WriteString("import {ERC20} from \"@openzeppelin/contracts/token/ERC20/ERC20.sol\";\n")
	b.WriteString("import {Ownable} from \"@openzeppelin/contracts/access/Ownable.sol\";\n\n")

	b.WriteString(fmt.Sprintf("/// @title %s (%s)\n", g.spec.Name, g.spec.Symbol))
	b.WriteString("/// @notice Workshop tutorial token. Every balance, transfer and\n")
	b.WriteString("/// allowance rule is inherited from the audited library; the\n")
	b.WriteString("/// first-party code is the constructor and an owner-only mint.\n")
	b.WriteString(fmt.Sprintf("contract %s is ERC20, Ownable {\n", toContractName(g.spec.Name)))

	b.WriteString(g.generateConstructor())
	b.WriteString(g.generateMint())

	b.WriteString("}\n")
	return b.String()
}

func (g *generator) generateConstructor() string {
	var b strings.Builder

	if g.spec.InitialSupply != nil {
		b.WriteString("    constructor()\n")
	} else {
		b.WriteString("    constructor(uint256 initialSupply)\n")
	}
	b.WriteString(fmt.Sprintf("        ERC20(%q, %q)\n", g.spec.Name, g.spec.Symbol))
	b.WriteString("        Ownable(msg.sender)\n")
	b.WriteString("    {\n")
	if g.spec.InitialSupply != nil {
		b.WriteString(fmt.Sprintf("        _mint(msg.sender, %s);\n", g.spec.InitialSupply.Dec()))
	} else {
		b.WriteString("        _mint(msg.sender, initialSupply);\n")
	}
	b.WriteString("    }\n\n")

	return b.String()
}

func (g *generator) generateMint() string {
	var b strings.Builder

	b.WriteString("    /// @notice Issue new tokens. Only the owner may call this.\n")
	b.WriteString("    function mint(address to, uint256 amount) public onlyOwner {\n")
	b.WriteString("        _mint(to, amount);\n")
	b.WriteString("    }\n")

	return b.String()
}

// toContractName strips separators so a display name like "My Token"
// becomes the identifier MyToken.
func toContractName(name string) string {
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, " ", "")
	return name
}
