package chat

// Directory tracks which connections are online right now and in which role.
// It is deliberately separate from the transport's connection table: the
// transport knows sockets, the directory knows identities.
type Directory struct {
	roles map[ConnID]Role
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{roles: make(map[ConnID]Role)}
}

// Add records a connection as online in the given role.
func (d *Directory) Add(id ConnID, role Role) {
	d.roles[id] = role
}

// Remove forgets a connection.
func (d *Directory) Remove(id ConnID) {
	delete(d.roles, id)
}

// RoleOf reports the role of an online connection.
func (d *Directory) RoleOf(id ConnID) (Role, bool) {
	role, ok := d.roles[id]
	return role, ok
}

// Online reports whether the connection is currently connected.
func (d *Directory) Online(id ConnID) bool {
	_, ok := d.roles[id]
	return ok
}
