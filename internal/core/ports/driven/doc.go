// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them:
//
//   - TokenCipher: Encryption of credentials at rest
//   - ConnectionStore: Connection persistence (keeps the user's connected
//     flag in lockstep with record existence)
//   - AppointmentStore / Directory: CRM persistence
//   - OAuthClient / CalendarGateway / MailGateway: The external Google
//     protocol surface
//
// Ports may import the domain package only.
package driven
