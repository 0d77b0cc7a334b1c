// Package sync holds the domain model of the contact reconciliation and
// multi-platform synchronization engine: the platform adapter port, the
// per-(user, platform) sync configuration, the job run audit record, the
// duplicate matcher and the field-merge reconciliation engine.
//
// The package follows the Ports & Adapters pattern: PlatformAdapter and the
// repository interfaces are defined here, concrete implementations (directory
// service, mobile sync, OAuth CRM connectors, gorm persistence) live in the
// infrastructure layer.
package sync
