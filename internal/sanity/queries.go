package sanity

// GROQクエリ。投影するフィールドはdocument型（convert.go）と対応させる。
const (
	queryProjects = `*[_type == "project"] | order(date desc) {
  _id,
  title,
  slug,
  category,
  summary,
  body,
  tags,
  role,
  date,
  links,
  coverImage,
  gallery,
  readingTime
}`

	queryProjectBySlug = `*[_type == "project" && slug.current == $slug][0] {
  _id,
  title,
  slug,
  category,
  summary,
  body,
  tags,
  role,
  date,
  links,
  coverImage,
  gallery,
  readingTime
}`

	queryProjectsByCategory = `*[_type == "project" && category == $category] | order(date desc) {
  _id,
  title,
  slug,
  category,
  summary,
  tags,
  role,
  date,
  links,
  coverImage,
  readingTime
}`

	queryPosts = `*[_type == "post"] | order(publishedAt desc) {
  _id,
  title,
  slug,
  excerpt,
  body,
  tags,
  publishedAt,
  readingTime,
  featured,
  coverImage
}`

	queryPostBySlug = `*[_type == "post" && slug.current == $slug][0] {
  _id,
  title,
  slug,
  excerpt,
  body,
  tags,
  publishedAt,
  readingTime,
  featured,
  coverImage
}`

	queryFeaturedPosts = `*[_type == "post" && featured == true] | order(publishedAt desc) {
  _id,
  title,
  slug,
  excerpt,
  tags,
  publishedAt,
  readingTime,
  coverImage
}`

	queryProfile = `*[_type == "profile"][0] {
  _id,
  name,
  headline,
  location,
  bio_formal,
  email_public,
  socials,
  resume_url,
  avatar,
  skills,
  newsletter
}`
)
