package registry

// Built-in CCIP testnet table. The yaml networks file can replace any
// row or add new ones; replacements go through the same validation.
func defaultNetworks() []NetworkConfig {
	return []NetworkConfig{
		{
			Key:            "11155111",
			Name:           "Ethereum Sepolia",
			Family:         FamilyEVM,
			EVMChainID:     11155111,
			ChainSelector:  16015286601757825753,
			Router:         "0x0BF3dE8c5D3e8A2B34D2BEeB17ABfCeBaf363A59",
			RPCURL:         "https://ethereum-sepolia-rpc.publicnode.com",
			NativeSymbol:   "ETH",
			NativeDecimals: 18,
			FeeTokens: map[string]string{
				"LINK": "0x779877A7B0D9E8603169DdbD7836e478b4624789",
			},
			Tokens: map[string]TokenInfo{
				"USDC": {Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Decimals: 6},
				"LINK": {Address: "0x779877A7B0D9E8603169DdbD7836e478b4624789", Decimals: 18},
			},
		},
		{
			Key:            "84532",
			Name:           "Base Sepolia",
			Family:         FamilyEVM,
			EVMChainID:     84532,
			ChainSelector:  10344971235874465080,
			Router:         "0xD3b06cEbF099CE7DA4AcCf578aaebFDBd6e88a93",
			RPCURL:         "https://sepolia.base.org",
			NativeSymbol:   "ETH",
			NativeDecimals: 18,
			FeeTokens: map[string]string{
				"LINK": "0xE4aB69C077896252FAFBD49EFD26B5D171A32410",
			},
			Tokens: map[string]TokenInfo{
				"USDC": {Address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Decimals: 6},
				"LINK": {Address: "0xE4aB69C077896252FAFBD49EFD26B5D171A32410", Decimals: 18},
			},
		},
		{
			Key:            "43113",
			Name:           "Avalanche Fuji",
			Family:         FamilyEVM,
			EVMChainID:     43113,
			ChainSelector:  14767482510784806043,
			Router:         "0xF694E193200268f9a4868e4Aa017A0118C9a8177",
			RPCURL:         "https://api.avax-test.network/ext/bc/C/rpc",
			NativeSymbol:   "AVAX",
			NativeDecimals: 18,
			FeeTokens: map[string]string{
				"LINK": "0x0b9d5D9136855f6FEc3c0993feE6E9CE8a297846",
			},
			Tokens: map[string]TokenInfo{
				"USDC": {Address: "0x5425890298aed601595a70AB815c96711a31Bc65", Decimals: 6},
				"LINK": {Address: "0x0b9d5D9136855f6FEc3c0993feE6E9CE8a297846", Decimals: 18},
			},
		},
		{
			Key:            "421614",
			Name:           "Arbitrum Sepolia",
			Family:         FamilyEVM,
			EVMChainID:     421614,
			ChainSelector:  3478487238524512106,
			Router:         "0x2a9C5afB0d0e4BAb2BCdaE109EC4b0c4Be15a165",
			RPCURL:         "https://sepolia-rollup.arbitrum.io/rpc",
			NativeSymbol:   "ETH",
			NativeDecimals: 18,
			DestGasLimit:   700_000,
			FeeTokens: map[string]string{
				"LINK": "0xb1D4538B4571d411F07960EF2838Ce337FE1E80E",
			},
			Tokens: map[string]TokenInfo{
				"USDC": {Address: "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d", Decimals: 6},
				"LINK": {Address: "0xb1D4538B4571d411F07960EF2838Ce337FE1E80E", Decimals: 18},
			},
		},
		{
			Key:            "11155420",
			Name:           "OP Sepolia",
			Family:         FamilyEVM,
			EVMChainID:     11155420,
			ChainSelector:  5224473277236331295,
			Router:         "0x114A20A10b43D4115e5aeef7345a1A71d2a60C57",
			RPCURL:         "https://sepolia.optimism.io",
			NativeSymbol:   "ETH",
			NativeDecimals: 18,
			FeeTokens: map[string]string{
				"LINK": "0xE4aB69C077896252FAFBD49EFD26B5D171A32410",
			},
			Tokens: map[string]TokenInfo{
				"USDC": {Address: "0x5fd84259d66Cd46123540766Be93DFE6D43130D7", Decimals: 6},
				"LINK": {Address: "0xE4aB69C077896252FAFBD49EFD26B5D171A32410", Decimals: 18},
			},
		},
		{
			Key:            "80002",
			Name:           "Polygon Amoy",
			Family:         FamilyEVM,
			EVMChainID:     80002,
			ChainSelector:  16281711391670634445,
			Router:         "0x9C32fCB86BF0f4a1A8921a9Fe46de3198bb884B2",
			RPCURL:         "https://rpc-amoy.polygon.technology",
			NativeSymbol:   "POL",
			NativeDecimals: 18,
			FeeTokens: map[string]string{
				"LINK": "0x0Fd9e8d3aF1aaee056EB9e802c3A762a667b1904",
			},
			Tokens: map[string]TokenInfo{
				"USDC": {Address: "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582", Decimals: 6},
				"LINK": {Address: "0x0Fd9e8d3aF1aaee056EB9e802c3A762a667b1904", Decimals: 18},
			},
		},
		{
			Key:            "devnet",
			Name:           "Solana Devnet",
			Family:         FamilySolana,
			ChainSelector:  16423721717087811551,
			RPCURL:         "https://api.devnet.solana.com",
			NativeSymbol:   "SOL",
			NativeDecimals: 9,
		},
	}
}

// Ordered source->destination pairs with active lanes. Same-chain
// payments never consult this table.
func defaultRoutes() [][2]string {
	evm := []string{"11155111", "84532", "43113", "421614", "11155420", "80002"}
	out := make([][2]string, 0, len(evm)*len(evm))
	for _, src := range evm {
		for _, dst := range evm {
			if src != dst {
				out = append(out, [2]string{src, dst})
			}
		}
	}
	// Solana lanes run from and to Ethereum Sepolia only.
	out = append(out, [2]string{"11155111", "devnet"}, [2]string{"devnet", "11155111"})
	return out
}
