// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

// Config defines a set of configuration options for proof verification.
// It is mainly intended to accurately model the different trie flavors
// found in Ethereum-style state representations.
type Config struct {
	// A descriptive name for this configuration. It has no effect except
	// for logging and debugging purposes.
	Name string

	// If set to true, keys are hashed using keccak256 before being used to
	// navigate the trie. This is the mode of Ethereum's account and storage
	// tries. If false, keys are used verbatim as navigation paths.
	UseHashedKeys bool
}

var StateTrieConfig = Config{
	Name:          "state-trie",
	UseHashedKeys: true,
}

var DirectKeyConfig = Config{
	Name:          "direct-key",
	UseHashedKeys: false,
}

var allConfigs = []Config{
	StateTrieConfig, DirectKeyConfig,
}

// GetConfigByName attempts to locate a configuration with the given name.
func GetConfigByName(name string) (Config, bool) {
	for _, config := range allConfigs {
		if config.Name == name {
			return config, true
		}
	}
	return Config{}, false
}
