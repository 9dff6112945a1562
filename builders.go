package catalogaccess

// Builders provide a fluent API for assembling rules in code and tests.

// ClientRuleBuilder builds a ClientRule
type ClientRuleBuilder struct {
	r *ClientRule
}

func NewClientRuleBuilder() *ClientRuleBuilder {
	return &ClientRuleBuilder{r: &ClientRule{AccessMode: AccessAll}}
}

func (b *ClientRuleBuilder) Organization(id string) *ClientRuleBuilder {
	b.r.OrganizationID = id
	return b
}
func (b *ClientRuleBuilder) Client(id string) *ClientRuleBuilder  { b.r.ClientID = id; return b }
func (b *ClientRuleBuilder) Mode(m AccessMode) *ClientRuleBuilder { b.r.AccessMode = m; return b }
func (b *ClientRuleBuilder) AllowCategories(ids ...string) *ClientRuleBuilder {
	b.r.AllowedCategories = append(b.r.AllowedCategories, ids...)
	return b
}
func (b *ClientRuleBuilder) AllowItems(ids ...string) *ClientRuleBuilder {
	b.r.AllowedItems = append(b.r.AllowedItems, ids...)
	return b
}
func (b *ClientRuleBuilder) DenyCategories(ids ...string) *ClientRuleBuilder {
	b.r.DeniedCategories = append(b.r.DeniedCategories, ids...)
	return b
}
func (b *ClientRuleBuilder) DenyItems(ids ...string) *ClientRuleBuilder {
	b.r.DeniedItems = append(b.r.DeniedItems, ids...)
	return b
}
func (b *ClientRuleBuilder) Build() *ClientRule { return b.r }

// UserRuleBuilder builds a UserRule
type UserRuleBuilder struct {
	r *UserRule
}

func NewUserRuleBuilder() *UserRuleBuilder {
	return &UserRuleBuilder{r: &UserRule{AccessMode: AccessAll, InheritanceMode: InheritanceInherit}}
}

func (b *UserRuleBuilder) Organization(id string) *UserRuleBuilder {
	b.r.OrganizationID = id
	return b
}
func (b *UserRuleBuilder) User(id string) *UserRuleBuilder   { b.r.UserID = id; return b }
func (b *UserRuleBuilder) Client(id string) *UserRuleBuilder { b.r.ClientID = id; return b }
func (b *UserRuleBuilder) Inheritance(m InheritanceMode) *UserRuleBuilder {
	b.r.InheritanceMode = m
	return b
}
func (b *UserRuleBuilder) Mode(m AccessMode) *UserRuleBuilder { b.r.AccessMode = m; return b }
func (b *UserRuleBuilder) AllowCategories(ids ...string) *UserRuleBuilder {
	b.r.AllowedCategories = append(b.r.AllowedCategories, ids...)
	return b
}
func (b *UserRuleBuilder) AllowItems(ids ...string) *UserRuleBuilder {
	b.r.AllowedItems = append(b.r.AllowedItems, ids...)
	return b
}
func (b *UserRuleBuilder) DenyCategories(ids ...string) *UserRuleBuilder {
	b.r.DeniedCategories = append(b.r.DeniedCategories, ids...)
	return b
}
func (b *UserRuleBuilder) DenyItems(ids ...string) *UserRuleBuilder {
	b.r.DeniedItems = append(b.r.DeniedItems, ids...)
	return b
}
func (b *UserRuleBuilder) Build() *UserRule { return b.r }
