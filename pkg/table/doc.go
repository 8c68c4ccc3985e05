// Package table implements the resource-allocation and synchronization
// engine for the symposium coordination server: the shared registries of
// philosophers and chopsticks, the ring-assignment algorithm that seats a
// new philosopher between the previous-last and the first, the counting
// dining gate that bounds concurrent eaters to floor(n/2), and the
// thinking -> hungry -> eating transition protocol that acquires the gate
// and both chopsticks in a fixed, deadlock-free order.
package table
