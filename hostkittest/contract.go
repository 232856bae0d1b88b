// Package hostkittest provides a contract test suite for hostkit providers.
//
// The contracts pin down the behaviour the deployment helpers rely on: exit
// codes surface as *hostkit.ExitError, uploads create parent directories,
// missing downloads fail and scripts reach a POSIX shell unmodified.
package hostkittest

// AllContracts returns all test cases for the contract test suite.
func AllContracts() []TestCase {
	const initialCapacity = 50

	contracts := make([]TestCase, 0, initialCapacity)

	contracts = append(contracts, coreContracts()...)
	contracts = append(contracts, environmentContracts()...)
	contracts = append(contracts, systemContracts()...)
	contracts = append(contracts, fileContracts()...)
	contracts = append(contracts, errorContracts()...)

	return contracts
}
