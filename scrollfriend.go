package scrollfriend

const Version = `0.1.0`
const Slogan = `Your friendly friend in scroll-driven page behavior.`
