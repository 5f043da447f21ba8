package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// Populated once at startup and handed to the service container.
type RepositoryProvider struct {
	JournalRepo    JournalRepositoryFacade
	AccountRepo    AccountRepositoryFacade
	AttachmentRepo AttachmentRepositoryFacade
}
